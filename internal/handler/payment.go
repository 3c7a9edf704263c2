package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/payment"
	"github.com/iliyamo/travel-reservation/internal/queue"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// ConfirmationPublisher publishes a confirmation event after the
// reconciler has committed.  Publishing is best-effort: a broker
// outage must never turn an applied webhook into a 5xx retry loop.
type ConfirmationPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// PaymentHandler initiates payments and receives provider webhooks.
type PaymentHandler struct {
	Payments     *repository.PaymentRepo
	Reservations *repository.FlightReservationRepo
	Bookings     *repository.HotelBookingRepo
	Registry     payment.Registry
	Reconciler   *payment.Reconciler
	Publisher    ConfirmationPublisher // may be nil when the broker is disabled
}

func NewPaymentHandler(
	payments *repository.PaymentRepo,
	reservations *repository.FlightReservationRepo,
	bookings *repository.HotelBookingRepo,
	registry payment.Registry,
	reconciler *payment.Reconciler,
	publisher ConfirmationPublisher,
) *PaymentHandler {
	if payments == nil || reservations == nil || bookings == nil || registry == nil || reconciler == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{
		Payments:     payments,
		Reservations: reservations,
		Bookings:     bookings,
		Registry:     registry,
		Reconciler:   reconciler,
		Publisher:    publisher,
	}
}

type paymentResp struct {
	ID            uint64 `json:"id"`
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	ReferenceID   uint64 `json:"reference_id"`
	AmountCents   uint32 `json:"amount_cents"`
	Currency      string `json:"currency"`
	Provider      string `json:"provider"`
	Status        string `json:"status"`
}

// ProcessPayment handles POST /v1/payments/process.  The body must
// contain type (FLIGHT or HOTEL), reference_id and provider.  The
// amount is taken from the reservation or booking being paid, never
// from the client.  A PENDING payment row is created and its
// transaction id returned; the outcome arrives later via the
// provider's webhook.
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	body, handled := bindRequired(c, "type", "reference_id", "provider")
	if handled {
		return nil
	}
	typRaw, _ := asString(body["type"])
	typ := strings.ToUpper(strings.TrimSpace(typRaw))
	if typ != model.PaymentTypeFlight && typ != model.PaymentTypeHotel {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be FLIGHT or HOTEL"})
	}
	refID, ok := asID(body["reference_id"])
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reference_id"})
	}
	providerRaw, _ := asString(body["provider"])
	provider := strings.ToLower(strings.TrimSpace(providerRaw))
	if _, ok := h.Registry.Lookup(provider); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment provider"})
	}
	currency := "USD"
	if cur, ok := asString(body["currency"]); ok && cur != "" {
		currency = strings.ToUpper(strings.TrimSpace(cur))
	}

	ctx := c.Request().Context()

	// The record must belong to the caller and still await payment.
	var amount uint32
	switch typ {
	case model.PaymentTypeFlight:
		res, err := h.Reservations.GetByIDForUser(ctx, refID, userID)
		if err != nil {
			return jsonLookupErr(c, err, "reservation")
		}
		if res.Status != model.StatusPending {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is " + res.Status})
		}
		amount = res.AmountCents
	case model.PaymentTypeHotel:
		b, err := h.Bookings.GetByIDForUser(ctx, refID, userID)
		if err != nil {
			return jsonLookupErr(c, err, "booking")
		}
		if b.Status != model.StatusPending {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is " + b.Status})
		}
		amount = b.AmountCents
	}

	pending, err := h.Payments.ExistsPendingForReference(ctx, typ, refID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check payments"})
	}
	if pending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "a payment for this record is already in progress"})
	}

	p := &model.Payment{
		TransactionID: strings.ToUpper(provider) + "-" + uuid.NewString(),
		Type:          typ,
		ReferenceID:   refID,
		AmountCents:   amount,
		Currency:      currency,
		Provider:      provider,
		Status:        model.PaymentPending,
	}
	if err := h.Payments.Create(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create payment"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": paymentResp{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		Type:          p.Type,
		ReferenceID:   p.ReferenceID,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		Provider:      p.Provider,
		Status:        p.Status,
	}})
}

// Webhook handles POST /v1/payments/webhook/:provider.  The route is
// unauthenticated; providers authenticate by signature where they sign
// at all.  Status codes steer provider retries: 2xx acknowledges
// (including recognized-but-ignored events and replays), 4xx rejects
// permanently, 5xx asks the provider to deliver again.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	norm, ok := h.Registry.Lookup(c.Param("provider"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown payment provider"})
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	ev, err := norm.Normalize(body, c.Request().Header)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed payload"})
	}
	if ev.Ignore {
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
	}

	result, err := h.Reconciler.Apply(c.Request().Context(), ev)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to apply event"})
	}

	// Publish only after the transaction committed.
	if result.Transitioned && result.Payment.Status == model.PaymentCompleted && h.Publisher != nil {
		pubErr := h.Publisher.PublishReservationConfirmed(c.Request().Context(), queue.ReservationConfirmedEvent{
			PaymentID:     result.Payment.ID,
			TransactionID: result.Payment.TransactionID,
			Type:          result.Payment.Type,
			ReferenceID:   result.Payment.ReferenceID,
			AmountCents:   result.Payment.AmountCents,
			Currency:      result.Payment.Currency,
			Provider:      result.Payment.Provider,
		})
		if pubErr != nil {
			c.Logger().Warnf("confirmation event for %s not published: %v", result.Payment.TransactionID, pubErr)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "processed"})
}

// jsonLookupErr maps a GetByIDForUser miss onto the API error shape.
// Ownership failures are deliberately indistinguishable from missing
// records.
func jsonLookupErr(c echo.Context, err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load " + what})
}
