package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

const dateLayout = "2006-01-02"

// HotelHandler serves hotel browsing, room availability and bookings.
// Booking uses the same locked-transaction shape as seat reservation:
// the room row is locked first, then the date-overlap check runs FOR
// UPDATE, so two overlapping requests for the same room serialize.
type HotelHandler struct {
	Hotels   *repository.HotelRepo
	Rooms    *repository.RoomRepo
	Bookings *repository.HotelBookingRepo
}

func NewHotelHandler(hotels *repository.HotelRepo, rooms *repository.RoomRepo, bookings *repository.HotelBookingRepo) *HotelHandler {
	if hotels == nil || rooms == nil || bookings == nil {
		panic("nil repository passed to NewHotelHandler")
	}
	return &HotelHandler{Hotels: hotels, Rooms: rooms, Bookings: bookings}
}

type bookingResp struct {
	ID          uint64 `json:"id"`
	RoomID      uint64 `json:"room_id"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	Status      string `json:"status"`
	AmountCents uint32 `json:"amount_cents"`
	CreatedAt   string `json:"created_at"`
}

func toBookingResp(b *model.HotelBooking) bookingResp {
	return bookingResp{
		ID:          b.ID,
		RoomID:      b.RoomID,
		CheckIn:     b.CheckIn.Format(dateLayout),
		CheckOut:    b.CheckOut.Format(dateLayout),
		Status:      b.Status,
		AmountCents: b.AmountCents,
		CreatedAt:   b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// parseStay validates a check_in / check_out pair.  Dates use the
// YYYY-MM-DD layout and the interval is half-open: check_out must be
// strictly after check_in, and a stay ending on day X does not overlap
// one starting on day X.
func parseStay(checkIn, checkOut string) (in, out time.Time, err error) {
	in, err = time.Parse(dateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("check_in must be YYYY-MM-DD")
	}
	out, err = time.Parse(dateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("check_out must be YYYY-MM-DD")
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, errors.New("check_out must be after check_in")
	}
	return in, out, nil
}

// ListHotels handles GET /v1/hotels with an optional city filter.
func (h *HotelHandler) ListHotels(c echo.Context) error {
	hotels, err := h.Hotels.List(c.Request().Context(), c.QueryParam("city"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hotels"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": hotels})
}

// ListRooms handles GET /v1/hotels/:id/rooms.
func (h *HotelHandler) ListRooms(c echo.Context) error {
	hotelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || hotelID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	if _, err := h.Hotels.GetByID(c.Request().Context(), hotelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hotel"})
	}
	rooms, err := h.Rooms.ListByHotel(c.Request().Context(), hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

// RoomAvailability handles GET /v1/hotels/rooms/:id/availability.  It is
// an advisory read only; BookRoom repeats the check under a row lock.
func (h *HotelHandler) RoomAvailability(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	in, out, err := parseStay(c.QueryParam("check_in"), c.QueryParam("check_out"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if _, err := h.Rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	taken, err := h.Bookings.OverlapExists(ctx, roomID, in, out)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":   roomID,
		"check_in":  in.Format(dateLayout),
		"check_out": out.Format(dateLayout),
		"available": !taken,
	})
}

// BookRoom handles POST /v1/hotels/book.  The body must contain room_id,
// check_in and check_out.  The amount is nights times the room's nightly
// price; the booking starts PENDING and is confirmed by payment.
func (h *HotelHandler) BookRoom(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	body, handled := bindRequired(c, "room_id", "check_in", "check_out")
	if handled {
		return nil
	}
	roomID, ok := asID(body["room_id"])
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
	}
	inRaw, _ := asString(body["check_in"])
	outRaw, _ := asString(body["check_out"])
	in, out, err := parseStay(inRaw, outRaw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	tx, err := h.Rooms.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := h.Rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	taken, err := h.Bookings.OverlapExistsTx(ctx, tx, roomID, in, out)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room unavailable for the requested dates"})
	}

	nights := uint32(out.Sub(in).Hours() / 24)
	booking := &model.HotelBooking{
		UserID:      userID,
		RoomID:      roomID,
		CheckIn:     in,
		CheckOut:    out,
		Status:      model.StatusPending,
		AmountCents: nights * room.PriceCents,
	}
	if err := h.Bookings.CreateTx(ctx, tx, booking); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"item": toBookingResp(booking)})
}

// CancelBooking handles POST /v1/hotels/bookings/:id/cancel.  Rooms have
// no counter to restore; freeing the date range is just the status flip.
func (h *HotelHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	if err := h.Bookings.Cancel(c.Request().Context(), bookingID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled"})
}

// ListBookings handles GET /v1/my/hotel-bookings.
func (h *HotelHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	out := make([]bookingResp, 0, len(items))
	for i := range items {
		out = append(out, toBookingResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
