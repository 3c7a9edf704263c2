package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

func newFlightTestHandler(t *testing.T) (*FlightHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewFlightHandler(
		repository.NewFlightRepo(db),
		repository.NewFlightReservationRepo(db),
	), mock
}

// newAuthedContext builds an echo.Context the way JWTAuth leaves it:
// numeric claims come out of the token as float64.
func newAuthedContext(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(userID))
	return c, rec
}

func flightRows(id uint64, available, total, price uint32) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "flight_number", "origin", "destination", "departs_at", "arrives_at",
		"total_seats", "available_seats", "price_cents", "created_at", "updated_at",
	}).AddRow(id, "TR123", "NBO", "AMS", now.Add(72*time.Hour), now.Add(80*time.Hour),
		total, available, price, now, now)
}

func flightReservationRows(id, userID, flightID uint64, seat, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "flight_id", "seat_number", "status", "amount_cents", "created_at", "updated_at",
	}).AddRow(id, userID, flightID, seat, status, 45000, now, now)
}

func existsRows(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func TestReserveSeat_Success(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM flights WHERE id = \\? FOR UPDATE").
		WithArgs(3).
		WillReturnRows(flightRows(3, 1, 180, 45000))
	mock.ExpectQuery("WHERE flight_id = \\? AND seat_number = \\?").
		WithArgs(3, "12A").
		WillReturnRows(existsRows(false))
	mock.ExpectQuery("WHERE user_id = \\? AND flight_id = \\?").
		WithArgs(7, 3).
		WillReturnRows(existsRows(false))
	mock.ExpectExec("INSERT INTO flight_reservations").
		WithArgs(7, 3, "12A", model.StatusPending, 45000).
		WillReturnResult(sqlmock.NewResult(99, 1))
	mock.ExpectQuery("SELECT (.+) FROM flight_reservations WHERE id = \\?").
		WithArgs(99).
		WillReturnRows(flightReservationRows(99, 7, 3, "12A", model.StatusPending))
	mock.ExpectExec("UPDATE flights SET available_seats = available_seats - 1").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Lowercase seat in the request; stored uppercased.
	c, rec := newAuthedContext(t, http.MethodPost, "/v1/flights/reserve",
		`{"flight_id":3,"seat_number":"12a"}`, 7)

	require.NoError(t, h.ReserveSeat(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Item reservationResp `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(99), resp.Item.ID)
	assert.Equal(t, "12A", resp.Item.SeatNumber)
	assert.Equal(t, model.StatusPending, resp.Item.Status)
	assert.Equal(t, uint32(45000), resp.Item.AmountCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeat_FlightNotFound(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	// An empty row set yields sql.ErrNoRows.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM flights WHERE id = \\? FOR UPDATE").
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/flights/reserve",
		`{"flight_id":999,"seat_number":"1A"}`, 7)

	require.NoError(t, h.ReserveSeat(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeat_NoSeatsLeft(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM flights WHERE id = \\? FOR UPDATE").
		WithArgs(3).
		WillReturnRows(flightRows(3, 0, 180, 45000))
	mock.ExpectRollback()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/flights/reserve",
		`{"flight_id":3,"seat_number":"12A"}`, 7)

	require.NoError(t, h.ReserveSeat(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeat_SeatTaken(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM flights WHERE id = \\? FOR UPDATE").
		WithArgs(3).
		WillReturnRows(flightRows(3, 12, 180, 45000))
	mock.ExpectQuery("WHERE flight_id = \\? AND seat_number = \\?").
		WithArgs(3, "12A").
		WillReturnRows(existsRows(true))
	mock.ExpectRollback()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/flights/reserve",
		`{"flight_id":3,"seat_number":"12A"}`, 7)

	require.NoError(t, h.ReserveSeat(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeat_DuplicateReservation(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM flights WHERE id = \\? FOR UPDATE").
		WithArgs(3).
		WillReturnRows(flightRows(3, 12, 180, 45000))
	mock.ExpectQuery("WHERE flight_id = \\? AND seat_number = \\?").
		WithArgs(3, "12A").
		WillReturnRows(existsRows(false))
	mock.ExpectQuery("WHERE user_id = \\? AND flight_id = \\?").
		WithArgs(7, 3).
		WillReturnRows(existsRows(true))
	mock.ExpectRollback()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/flights/reserve",
		`{"flight_id":3,"seat_number":"12A"}`, 7)

	require.NoError(t, h.ReserveSeat(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeat_MissingFields(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/flights/reserve",
		`{"flight_id":3}`, 7)

	require.NoError(t, h.ReserveSeat(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "seat_number")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReservation_RestoresSeat(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT flight_id FROM flight_reservations").
		WithArgs(99, 7).
		WillReturnRows(sqlmock.NewRows([]string{"flight_id"}).AddRow(3))
	mock.ExpectExec("UPDATE flight_reservations SET status = 'CANCELLED'").
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE flights SET available_seats = available_seats \\+ 1").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/flights/reservations/99/cancel", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("99")

	require.NoError(t, h.CancelReservation(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReservation_NotFound(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT flight_id FROM flight_reservations").
		WithArgs(99, 7).
		WillReturnRows(sqlmock.NewRows([]string{"flight_id"}))
	mock.ExpectRollback()

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/flights/reservations/99/cancel", "", 7)
	c.SetParamNames("id")
	c.SetParamValues("99")

	require.NoError(t, h.CancelReservation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReservations(t *testing.T) {
	h, mock := newFlightTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM flight_reservations\\s+WHERE user_id = \\?").
		WithArgs(7).
		WillReturnRows(flightReservationRows(99, 7, 3, "12A", model.StatusConfirmed))

	c, rec := newAuthedContext(t, http.MethodGet, "/v1/my/flight-reservations", "", 7)

	require.NoError(t, h.ListReservations(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seat_number":"12A"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
