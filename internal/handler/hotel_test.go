package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

func newHotelTestHandler(t *testing.T) (*HotelHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewHotelHandler(
		repository.NewHotelRepo(db),
		repository.NewRoomRepo(db),
		repository.NewHotelBookingRepo(db),
	), mock
}

func roomRows(id, hotelID uint64, price uint32) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "hotel_id", "room_number", "room_type", "price_cents", "created_at", "updated_at",
	}).AddRow(id, hotelID, "204", "DELUXE", price, now, now)
}

func hotelBookingRows(id, userID, roomID uint64, checkIn, checkOut time.Time, status string, amount uint32) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "room_id", "check_in", "check_out", "status", "amount_cents", "created_at", "updated_at",
	}).AddRow(id, userID, roomID, checkIn, checkOut, status, amount, now, now)
}

func TestRoomAvailability_Free(t *testing.T) {
	h, mock := newHotelTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM rooms WHERE id = \\?").
		WithArgs(2).
		WillReturnRows(roomRows(2, 1, 15000))
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM hotel_bookings").
		WithArgs(2, checkOut, checkIn). // overlap args are (roomID, checkOut, checkIn)
		WillReturnRows(existsRows(false))

	c, rec := newAuthedContext(t, http.MethodGet,
		"/v1/hotels/rooms/2/availability?check_in=2026-09-10&check_out=2026-09-14", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("2")

	require.NoError(t, h.RoomAvailability(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["available"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomAvailability_BadDates(t *testing.T) {
	h, _ := newHotelTestHandler(t)

	cases := []string{
		"check_in=2026-09-10&check_out=2026-09-10", // zero nights
		"check_in=2026-09-14&check_out=2026-09-10", // reversed
		"check_in=tomorrow&check_out=2026-09-10",   // not a date
	}
	for _, q := range cases {
		c, rec := newAuthedContext(t, http.MethodGet, "/v1/hotels/rooms/2/availability?"+q, "", 7)
		c.SetParamNames("id")
		c.SetParamValues("2")
		require.NoError(t, h.RoomAvailability(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestBookRoom_Success(t *testing.T) {
	h, mock := newHotelTestHandler(t)

	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM rooms WHERE id = \\? FOR UPDATE").
		WithArgs(2).
		WillReturnRows(roomRows(2, 1, 15000))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hotel_bookings").
		WithArgs(2, checkOut, checkIn).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// 4 nights at 15000 cents.
	mock.ExpectExec("INSERT INTO hotel_bookings").
		WithArgs(7, 2, checkIn, checkOut, model.StatusPending, 60000).
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectQuery("SELECT (.+) FROM hotel_bookings WHERE id = \\?").
		WithArgs(55).
		WillReturnRows(hotelBookingRows(55, 7, 2, checkIn, checkOut, model.StatusPending, 60000))
	mock.ExpectCommit()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/hotels/book",
		`{"room_id":2,"check_in":"2026-09-10","check_out":"2026-09-14"}`, 7)

	require.NoError(t, h.BookRoom(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Item bookingResp `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(55), resp.Item.ID)
	assert.Equal(t, uint32(60000), resp.Item.AmountCents)
	assert.Equal(t, model.StatusPending, resp.Item.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRoom_DatesUnavailable(t *testing.T) {
	h, mock := newHotelTestHandler(t)

	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM rooms WHERE id = \\? FOR UPDATE").
		WithArgs(2).
		WillReturnRows(roomRows(2, 1, 15000))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hotel_bookings").
		WithArgs(2, checkOut, checkIn).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/hotels/book",
		`{"room_id":2,"check_in":"2026-09-10","check_out":"2026-09-14"}`, 7)

	require.NoError(t, h.BookRoom(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRoom_RoomNotFound(t *testing.T) {
	h, mock := newHotelTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM rooms WHERE id = \\? FOR UPDATE").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/hotels/book",
		`{"room_id":2,"check_in":"2026-09-10","check_out":"2026-09-14"}`, 7)

	require.NoError(t, h.BookRoom(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_Success(t *testing.T) {
	h, mock := newHotelTestHandler(t)

	mock.ExpectExec("UPDATE hotel_bookings SET status = 'CANCELLED'").
		WithArgs(55, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/hotels/bookings/55/cancel", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("55")

	require.NoError(t, h.CancelBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	h, mock := newHotelTestHandler(t)

	mock.ExpectExec("UPDATE hotel_bookings SET status = 'CANCELLED'").
		WithArgs(55, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/hotels/bookings/55/cancel", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("55")

	require.NoError(t, h.CancelBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
