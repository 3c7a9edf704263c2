package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// FlightHandler groups the repositories needed for flight browsing,
// seat reservation and cancellation.  All mutating methods run their
// checks and writes inside a single transaction: the availability
// re-check happens after the flight row is locked, so no concurrent
// request can observe or act on a partially-updated state.
type FlightHandler struct {
	Flights      *repository.FlightRepo
	Reservations *repository.FlightReservationRepo
}

// NewFlightHandler constructs a FlightHandler.  Dependencies must be non-nil.
func NewFlightHandler(flights *repository.FlightRepo, reservations *repository.FlightReservationRepo) *FlightHandler {
	if flights == nil || reservations == nil {
		panic("nil repository passed to NewFlightHandler")
	}
	return &FlightHandler{Flights: flights, Reservations: reservations}
}

type flightResp struct {
	ID             uint64 `json:"id"`
	FlightNumber   string `json:"flight_number"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	DepartsAt      string `json:"departs_at"`
	ArrivesAt      string `json:"arrives_at"`
	TotalSeats     uint32 `json:"total_seats"`
	AvailableSeats uint32 `json:"available_seats"`
	PriceCents     uint32 `json:"price_cents"`
}

func toFlightResp(f *model.Flight) flightResp {
	return flightResp{
		ID:             f.ID,
		FlightNumber:   f.FlightNumber,
		Origin:         f.Origin,
		Destination:    f.Destination,
		DepartsAt:      f.DepartsAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ArrivesAt:      f.ArrivesAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		TotalSeats:     f.TotalSeats,
		AvailableSeats: f.AvailableSeats,
		PriceCents:     f.PriceCents,
	}
}

type reservationResp struct {
	ID          uint64 `json:"id"`
	FlightID    uint64 `json:"flight_id"`
	SeatNumber  string `json:"seat_number"`
	Status      string `json:"status"`
	AmountCents uint32 `json:"amount_cents"`
	CreatedAt   string `json:"created_at"`
}

func toReservationResp(r *model.FlightReservation) reservationResp {
	return reservationResp{
		ID:          r.ID,
		FlightID:    r.FlightID,
		SeatNumber:  r.SeatNumber,
		Status:      r.Status,
		AmountCents: r.AmountCents,
		CreatedAt:   r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ListFlights handles GET /v1/flights.  Optional origin and destination
// query parameters filter the result.
func (h *FlightHandler) ListFlights(c echo.Context) error {
	flights, err := h.Flights.List(c.Request().Context(), c.QueryParam("origin"), c.QueryParam("destination"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load flights"})
	}
	items := make([]flightResp, 0, len(flights))
	for i := range flights {
		items = append(items, toFlightResp(&flights[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetFlight handles GET /v1/flights/:id.
func (h *FlightHandler) GetFlight(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	f, err := h.Flights.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load flight"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toFlightResp(f)})
}

// ReserveSeat handles POST /v1/flights/reserve.  The body must contain
// flight_id and seat_number.  The whole operation runs inside one
// transaction: the flight row is locked, capacity and seat conflicts
// are re-checked, the reservation is inserted as PENDING (payment
// follows via /v1/payments/process) and the availability counter is
// decremented.  The re-check is mandatory even when the client just
// fetched seat availability, because time elapses between check and
// write.
func (h *FlightHandler) ReserveSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	body, handled := bindRequired(c, "flight_id", "seat_number")
	if handled {
		return nil
	}
	flightID, ok := asID(body["flight_id"])
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight_id"})
	}
	seatRaw, _ := asString(body["seat_number"])
	seat := strings.ToUpper(strings.TrimSpace(seatRaw))
	if seat == "" || len(seat) > 4 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat_number"})
	}

	ctx := c.Request().Context()
	tx, err := h.Flights.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	flight, err := h.Flights.GetForUpdateTx(ctx, tx, flightID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load flight"})
	}
	if flight.AvailableSeats == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no seats left"})
	}
	taken, err := h.Reservations.SeatTakenTx(ctx, tx, flightID, seat)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check seat"})
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already reserved"})
	}
	dup, err := h.Reservations.UserHoldsSeatTx(ctx, tx, userID, flightID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check reservations"})
	}
	if dup {
		return c.JSON(http.StatusConflict, echo.Map{"error": "you already have a reservation on this flight"})
	}

	res := &model.FlightReservation{
		UserID:      userID,
		FlightID:    flightID,
		SeatNumber:  seat,
		Status:      model.StatusPending,
		AmountCents: flight.PriceCents,
	}
	if err := h.Reservations.CreateTx(ctx, tx, res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	if err := h.Flights.DecrementSeatsTx(ctx, tx, flightID); err != nil {
		if errors.Is(err, repository.ErrNoSeatsLeft) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no seats left"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"item": toReservationResp(res)})
}

// CancelReservation handles POST /v1/flights/reservations/:id/cancel.
// The reservation must belong to the caller and still be active; the
// cancelled seat is returned to the flight's availability counter in
// the same transaction.  A miss (wrong id, wrong owner, already
// cancelled) is a 404 in every case.
func (h *FlightHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx := c.Request().Context()
	tx, err := h.Flights.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	flightID, err := h.Reservations.CancelTx(ctx, tx, resID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	if err := h.Flights.IncrementSeatsTx(ctx, tx, flightID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update availability"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled"})
}

// ListReservations handles GET /v1/my/flight-reservations.
func (h *FlightHandler) ListReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	out := make([]reservationResp, 0, len(items))
	for i := range items {
		out = append(out, toReservationResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
