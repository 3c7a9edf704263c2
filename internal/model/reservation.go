package model

import "time"

// Reservation status values shared by flight reservations and hotel
// bookings.  A record is created as PENDING when payment is still
// outstanding, moves to CONFIRMED when the payment provider reports
// success, and to CANCELLED on explicit cancellation or payment
// failure.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// FlightReservation records a traveler's claim on one seat of one
// flight.  At most one non-cancelled reservation may exist per
// (flight, seat) pair and per (user, flight) pair; both invariants
// are enforced inside the reservation transaction.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – traveler who made the reservation.
//  FlightID    – flight being reserved.
//  SeatNumber  – seat label such as "12A".
//  Status      – PENDING, CONFIRMED or CANCELLED.
//  AmountCents – price charged for the seat in cents.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type FlightReservation struct {
	ID          uint64    // flight_reservations.id
	UserID      uint64    // flight_reservations.user_id
	FlightID    uint64    // flight_reservations.flight_id
	SeatNumber  string    // flight_reservations.seat_number
	Status      string    // flight_reservations.status
	AmountCents uint32    // flight_reservations.amount_cents
	CreatedAt   time.Time // flight_reservations.created_at
	UpdatedAt   time.Time // flight_reservations.updated_at
}
