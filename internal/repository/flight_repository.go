package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// FlightRepo provides read access to flights and the transactional
// seat-counter mutations used by the reservation and cancellation
// transactions.  The available_seats column is only ever changed
// through the Tx methods below so that every change happens inside
// the same transaction that validates it.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo returns a new FlightRepo bound to the given database.
func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *FlightRepo) DB() *sql.DB { return r.db }

const flightColumns = `id, flight_number, origin, destination, departs_at, arrives_at,
       total_seats, available_seats, price_cents, created_at, updated_at`

func scanFlight(row interface{ Scan(...interface{}) error }) (*model.Flight, error) {
	var f model.Flight
	if err := row.Scan(
		&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.DepartsAt, &f.ArrivesAt,
		&f.TotalSeats, &f.AvailableSeats, &f.PriceCents, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// List returns flights ordered by departure time.  Origin and
// destination filters are optional; empty strings match everything.
func (r *FlightRepo) List(ctx context.Context, origin, destination string) ([]model.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights`
	var conds []string
	var args []interface{}
	if origin = strings.ToUpper(strings.TrimSpace(origin)); origin != "" {
		conds = append(conds, "origin = ?")
		args = append(args, origin)
	}
	if destination = strings.ToUpper(strings.TrimSpace(destination)); destination != "" {
		conds = append(conds, "destination = ?")
		args = append(args, destination)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY departs_at"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	flights := make([]model.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flights, nil
}

// GetByID returns a single flight or sql.ErrNoRows.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = ?`
	return scanFlight(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx reads a flight row with a row lock inside the given
// transaction.  The reservation transaction locks the flight first so
// concurrent reservations on the same flight serialize on this row.
func (r *FlightRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = ? FOR UPDATE`
	return scanFlight(tx.QueryRowContext(ctx, q, id))
}

// DecrementSeatsTx takes one seat off the flight's availability
// counter.  The WHERE guard keeps the counter from going negative
// even if a caller skipped the capacity re-check; zero affected rows
// maps to ErrNoSeatsLeft.
func (r *FlightRepo) DecrementSeatsTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE flights SET available_seats = available_seats - 1
	           WHERE id = ? AND available_seats > 0`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSeatsLeft
	}
	return nil
}

// IncrementSeatsTx returns one seat to the flight's availability
// counter after a cancellation.  The guard keeps available_seats from
// exceeding total_seats.
func (r *FlightRepo) IncrementSeatsTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE flights SET available_seats = available_seats + 1
	           WHERE id = ? AND available_seats < total_seats`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
