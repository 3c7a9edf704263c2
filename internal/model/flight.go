package model

import "time"

// Flight represents a scheduled flight that travelers can reserve
// seats on.  The available seat counter is the shared mutable
// resource guarded by the reservation and cancellation transactions:
// it is decremented when a reservation is created and incremented
// when one is cancelled, and must always satisfy
// 0 <= AvailableSeats <= TotalSeats.
//
// Fields:
//  ID             – primary key identifier.
//  FlightNumber   – carrier flight number (e.g. "KQ311").
//  Origin         – IATA code of the departure airport.
//  Destination    – IATA code of the arrival airport.
//  DepartsAt      – scheduled departure time (UTC).
//  ArrivesAt      – scheduled arrival time (UTC, after DepartsAt).
//  TotalSeats     – total seat capacity of the aircraft.
//  AvailableSeats – seats still open for reservation.
//  PriceCents     – price per seat in cents.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Flight struct {
	ID             uint64    // flights.id
	FlightNumber   string    // flights.flight_number
	Origin         string    // flights.origin
	Destination    string    // flights.destination
	DepartsAt      time.Time // flights.departs_at
	ArrivesAt      time.Time // flights.arrives_at
	TotalSeats     uint32    // flights.total_seats
	AvailableSeats uint32    // flights.available_seats
	PriceCents     uint32    // flights.price_cents
	CreatedAt      time.Time // flights.created_at
	UpdatedAt      time.Time // flights.updated_at
}
