package model

import "time"

// Hotel represents a property whose rooms can be booked by travelers.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – hotel name.
//  City      – city where the hotel is located.
//  Address   – street address.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Hotel struct {
	ID        uint64    // hotels.id
	Name      string    // hotels.name
	City      string    // hotels.city
	Address   string    // hotels.address
	CreatedAt time.Time // hotels.created_at
	UpdatedAt time.Time // hotels.updated_at
}

// Room is an individual bookable room within a hotel.  Rooms have no
// availability counter; a room is free for a date range exactly when
// no non-cancelled booking overlaps that range.
//
// Fields:
//  ID            – primary key identifier.
//  HotelID       – hotel the room belongs to.
//  RoomNumber    – label of the room within the hotel.
//  RoomType      – STANDARD, DELUXE or SUITE.
//  PriceCents    – price per night in cents.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Room struct {
	ID         uint64    // rooms.id
	HotelID    uint64    // rooms.hotel_id
	RoomNumber string    // rooms.room_number
	RoomType   string    // rooms.room_type
	PriceCents uint32    // rooms.price_cents
	CreatedAt  time.Time // rooms.created_at
	UpdatedAt  time.Time // rooms.updated_at
}
