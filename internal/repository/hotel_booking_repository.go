package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// HotelBookingRepo provides CRUD operations for hotel bookings.
// Availability is purely interval-based: a room is free for
// [checkIn, checkOut) when no non-cancelled booking overlaps that
// half-open interval.  Overlap uses the standard condition
// existing.check_in < requested.check_out AND
// existing.check_out > requested.check_in, so a stay that ends on the
// day another begins does not conflict.
type HotelBookingRepo struct {
	db *sql.DB
}

// NewHotelBookingRepo returns a repo bound to the given database.
func NewHotelBookingRepo(db *sql.DB) *HotelBookingRepo {
	return &HotelBookingRepo{db: db}
}

const bookingColumns = `id, user_id, room_id, check_in, check_out, status, amount_cents, created_at, updated_at`

const bookingOverlapCond = `room_id = ? AND status IN ('PENDING','CONFIRMED')
	             AND check_in < ? AND check_out > ?`

func scanBooking(row interface{ Scan(...interface{}) error }) (*model.HotelBooking, error) {
	var b model.HotelBooking
	if err := row.Scan(
		&b.ID, &b.UserID, &b.RoomID, &b.CheckIn, &b.CheckOut,
		&b.Status, &b.AmountCents, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

// OverlapExists reports whether any non-cancelled booking on the room
// overlaps the requested interval.  Read-only; used by the public
// availability endpoint.
func (r *HotelBookingRepo) OverlapExists(ctx context.Context, roomID uint64, checkIn, checkOut time.Time) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM hotel_bookings WHERE ` + bookingOverlapCond + `)`
	var overlap bool
	if err := r.db.QueryRowContext(ctx, q, roomID, checkOut, checkIn).Scan(&overlap); err != nil {
		return false, err
	}
	return overlap, nil
}

// OverlapExistsTx is the in-transaction re-check run by the booking
// transaction.  The re-check is mandatory even when the caller
// already called OverlapExists, because time elapses between check
// and write.
func (r *HotelBookingRepo) OverlapExistsTx(ctx context.Context, tx *sql.Tx, roomID uint64, checkIn, checkOut time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM hotel_bookings WHERE ` + bookingOverlapCond + ` FOR UPDATE`
	var n int
	if err := tx.QueryRowContext(ctx, q, roomID, checkOut, checkIn).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record.
func (r *HotelBookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.HotelBooking) error {
	const q = `INSERT INTO hotel_bookings (user_id, room_id, check_in, check_out, status, amount_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, b.UserID, b.RoomID, b.CheckIn, b.CheckOut, b.Status, b.AmountCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT ` + bookingColumns + ` FROM hotel_bookings WHERE id = ?`
	got, err := scanBooking(tx.QueryRowContext(ctx, sel, b.ID))
	if err != nil {
		return err
	}
	*b = *got
	return nil
}

// GetByIDTx loads a booking with a row lock for the webhook reconciler.
func (r *HotelBookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.HotelBooking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM hotel_bookings WHERE id = ? FOR UPDATE`
	return scanBooking(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx sets the booking status.
func (r *HotelBookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE hotel_bookings SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}

// Cancel cancels a booking owned by the given user.  sql.ErrNoRows
// covers every miss: wrong id, wrong owner, or already cancelled.
// Rooms have no seat counter; capacity is freed implicitly because
// cancelled bookings no longer participate in overlap checks, so a
// single guarded UPDATE is enough and no transaction is needed.
func (r *HotelBookingRepo) Cancel(ctx context.Context, id, userID uint64) error {
	const q = `UPDATE hotel_bookings SET status = 'CANCELLED'
	           WHERE id = ? AND user_id = ? AND status IN ('PENDING','CONFIRMED')`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByIDForUser returns a booking only when it belongs to the given
// user.  sql.ErrNoRows otherwise.
func (r *HotelBookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.HotelBooking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM hotel_bookings WHERE id = ? AND user_id = ?`
	return scanBooking(r.db.QueryRowContext(ctx, q, id, userID))
}

// ListByUser returns all bookings for the given user, newest first.
func (r *HotelBookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.HotelBooking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM hotel_bookings
	           WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.HotelBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
