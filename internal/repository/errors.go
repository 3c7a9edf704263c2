// Package repository contains raw-SQL repositories over the MySQL
// schema. Sentinel errors defined here let handlers distinguish
// failure scenarios without inspecting driver errors; availability
// conflicts that handlers check inside their own transactions are
// reported as booleans by the repo methods instead.
package repository

import "errors"

// ErrNoSeatsLeft is returned by the reservation transaction when the
// flight's available-seat counter is already zero. Handlers translate
// this into an HTTP 409 response.
var ErrNoSeatsLeft = errors.New("no seats left")

// ErrConflict is returned when a guarded counter update matches no
// rows, such as restoring a seat to a flight that is already at full
// capacity.
var ErrConflict = errors.New("conflict")
