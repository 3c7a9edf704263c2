package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// HotelRepo provides read access to hotels.
type HotelRepo struct {
	db *sql.DB
}

// NewHotelRepo returns a new HotelRepo bound to the given database.
func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

// List returns hotels, optionally filtered by city.
func (r *HotelRepo) List(ctx context.Context, city string) ([]model.Hotel, error) {
	query := `SELECT id, name, city, address, created_at, updated_at FROM hotels`
	var args []interface{}
	if city = strings.TrimSpace(city); city != "" {
		query += " WHERE city = ?"
		args = append(args, city)
	}
	query += " ORDER BY name"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hotels := make([]model.Hotel, 0)
	for rows.Next() {
		var h model.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &h.Address, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		hotels = append(hotels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hotels, nil
}

// GetByID returns a single hotel or sql.ErrNoRows.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (*model.Hotel, error) {
	const q = `SELECT id, name, city, address, created_at, updated_at FROM hotels WHERE id = ?`
	var h model.Hotel
	err := r.db.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.Name, &h.City, &h.Address, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// RoomRepo provides read access to rooms.  Rooms carry no
// availability state of their own; see HotelBookingRepo for the
// interval-overlap checks.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, hotel_id, room_number, room_type, price_cents, created_at, updated_at`

func scanRoom(row interface{ Scan(...interface{}) error }) (*model.Room, error) {
	var rm model.Room
	if err := row.Scan(&rm.ID, &rm.HotelID, &rm.RoomNumber, &rm.RoomType,
		&rm.PriceCents, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

// ListByHotel returns all rooms of a hotel ordered by room number.
func (r *RoomRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE hotel_id = ? ORDER BY room_number`
	rows, err := r.db.QueryContext(ctx, q, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

// GetByID returns a single room or sql.ErrNoRows.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	return scanRoom(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx reads a room row with a row lock inside the given
// transaction.  The booking transaction locks the room first so
// concurrent bookings on the same room serialize on this row before
// the overlap re-check runs.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ? FOR UPDATE`
	return scanRoom(tx.QueryRowContext(ctx, q, id))
}
