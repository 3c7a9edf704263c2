package model

import "time"

// HotelBooking records a traveler's claim on a room for a half-open
// date interval [CheckIn, CheckOut).  Two bookings conflict exactly
// when their intervals overlap: existing.CheckIn < requested.CheckOut
// AND existing.CheckOut > requested.CheckIn.  A check-out date equal
// to another booking's check-in date is not a conflict.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – traveler who made the booking.
//  RoomID      – room being booked.
//  CheckIn     – first night of the stay (date, UTC midnight).
//  CheckOut    – day of departure, exclusive.
//  Status      – PENDING, CONFIRMED or CANCELLED.
//  AmountCents – total price for the stay in cents.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type HotelBooking struct {
	ID          uint64    // hotel_bookings.id
	UserID      uint64    // hotel_bookings.user_id
	RoomID      uint64    // hotel_bookings.room_id
	CheckIn     time.Time // hotel_bookings.check_in
	CheckOut    time.Time // hotel_bookings.check_out
	Status      string    // hotel_bookings.status
	AmountCents uint32    // hotel_bookings.amount_cents
	CreatedAt   time.Time // hotel_bookings.created_at
	UpdatedAt   time.Time // hotel_bookings.updated_at
}
