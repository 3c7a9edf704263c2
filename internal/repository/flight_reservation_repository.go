package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// FlightReservationRepo provides CRUD operations for flight
// reservations.  All availability checks and writes are exposed as
// Tx-scoped methods because they only make sense inside the
// reservation or cancellation transaction; a check performed outside
// the transaction that writes is stale by the time the write commits.
type FlightReservationRepo struct {
	db *sql.DB
}

// NewFlightReservationRepo returns a repo bound to the given database.
func NewFlightReservationRepo(db *sql.DB) *FlightReservationRepo {
	return &FlightReservationRepo{db: db}
}

const reservationColumns = `id, user_id, flight_id, seat_number, status, amount_cents, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.FlightReservation, error) {
	var res model.FlightReservation
	if err := row.Scan(
		&res.ID, &res.UserID, &res.FlightID, &res.SeatNumber,
		&res.Status, &res.AmountCents, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

// SeatTakenTx reports whether a non-cancelled reservation exists for
// the (flight, seat) pair.  PENDING counts as taken: an unpaid
// reservation occupies the seat until it is confirmed or cancelled.
func (r *FlightReservationRepo) SeatTakenTx(ctx context.Context, tx *sql.Tx, flightID uint64, seat string) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM flight_reservations
	             WHERE flight_id = ? AND seat_number = ? AND status IN ('PENDING','CONFIRMED'))`
	var taken bool
	if err := tx.QueryRowContext(ctx, q, flightID, seat).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// UserHoldsSeatTx reports whether the user already has a non-cancelled
// reservation on the flight.  One seat per user per flight.
func (r *FlightReservationRepo) UserHoldsSeatTx(ctx context.Context, tx *sql.Tx, userID, flightID uint64) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM flight_reservations
	             WHERE user_id = ? AND flight_id = ? AND status IN ('PENDING','CONFIRMED'))`
	var holds bool
	if err := tx.QueryRowContext(ctx, q, userID, flightID).Scan(&holds); err != nil {
		return false, err
	}
	return holds, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  It populates the generated ID and timestamps on the
// provided record.  The caller must commit or rollback the
// transaction.
func (r *FlightReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.FlightReservation) error {
	const q = `INSERT INTO flight_reservations (user_id, flight_id, seat_number, status, amount_cents)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.FlightID, res.SeatNumber, res.Status, res.AmountCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	const sel = `SELECT ` + reservationColumns + ` FROM flight_reservations WHERE id = ?`
	got, err := scanReservation(tx.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetByIDTx loads a reservation with a row lock.  Used by the webhook
// reconciler so the status transition and the seat-counter adjustment
// see a stable row.
func (r *FlightReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.FlightReservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM flight_reservations WHERE id = ? FOR UPDATE`
	return scanReservation(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx sets the reservation status.
func (r *FlightReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE flight_reservations SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}

// CancelTx cancels a reservation owned by the given user and returns
// the flight ID so the caller can restore the seat counter in the
// same transaction.  sql.ErrNoRows covers every miss: wrong id, wrong
// owner, or already cancelled.
func (r *FlightReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id, userID uint64) (uint64, error) {
	const sel = `SELECT flight_id FROM flight_reservations
	             WHERE id = ? AND user_id = ? AND status IN ('PENDING','CONFIRMED') FOR UPDATE`
	var flightID uint64
	if err := tx.QueryRowContext(ctx, sel, id, userID).Scan(&flightID); err != nil {
		return 0, err
	}
	const upd = `UPDATE flight_reservations SET status = 'CANCELLED' WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, id); err != nil {
		return 0, err
	}
	return flightID, nil
}

// GetByIDForUser returns a reservation only when it belongs to the
// given user.  sql.ErrNoRows otherwise.
func (r *FlightReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.FlightReservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM flight_reservations WHERE id = ? AND user_id = ?`
	return scanReservation(r.db.QueryRowContext(ctx, q, id, userID))
}

// ListByUser returns all reservations for the given user, newest
// first.  When none exist an empty slice is returned.
func (r *FlightReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.FlightReservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM flight_reservations
	           WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.FlightReservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
