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
	"github.com/iliyamo/travel-reservation/internal/payment"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

const testCardSecret = "whsec_test"

func newPaymentTestHandler(t *testing.T) (*PaymentHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	payments := repository.NewPaymentRepo(db)
	reservations := repository.NewFlightReservationRepo(db)
	bookings := repository.NewHotelBookingRepo(db)
	flights := repository.NewFlightRepo(db)

	registry := payment.NewRegistry(
		payment.MpesaNormalizer{},
		payment.PaypalNormalizer{},
		payment.CardNormalizer{Secret: testCardSecret},
	)
	reconciler := payment.NewReconciler(db, payments, reservations, bookings, flights)
	return NewPaymentHandler(payments, reservations, bookings, registry, reconciler, nil), mock
}

func pendingPaymentRows(id uint64, txnID, typ string, refID uint64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "transaction_id", "type", "reference_id", "amount_cents", "currency",
		"provider", "status", "metadata", "created_at", "updated_at",
	}).AddRow(id, txnID, typ, refID, 45000, "USD", "card", status, nil, now, now)
}

func TestProcessPayment_FlightSuccess(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM flight_reservations WHERE id = \\? AND user_id = \\?").
		WithArgs(99, 7).
		WillReturnRows(flightReservationRows(99, 7, 3, "12A", model.StatusPending))
	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM payments").
		WithArgs(model.PaymentTypeFlight, 99).
		WillReturnRows(existsRows(false))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), model.PaymentTypeFlight, 99, 45000, "USD", "card", model.PaymentPending).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id = \\?").
		WithArgs(10).
		WillReturnRows(pendingPaymentRows(10, "CARD-generated", model.PaymentTypeFlight, 99, model.PaymentPending))

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/payments/process",
		`{"type":"flight","reference_id":99,"provider":"card"}`, 7)

	require.NoError(t, h.ProcessPayment(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Item paymentResp `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.PaymentPending, resp.Item.Status)
	assert.NotEmpty(t, resp.Item.TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPayment_ReservationNotOwned(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	// Wrong owner and missing record look identical.
	mock.ExpectQuery("SELECT (.+) FROM flight_reservations WHERE id = \\? AND user_id = \\?").
		WithArgs(99, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/payments/process",
		`{"type":"FLIGHT","reference_id":99,"provider":"card"}`, 7)

	require.NoError(t, h.ProcessPayment(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPayment_AlreadyConfirmed(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM flight_reservations WHERE id = \\? AND user_id = \\?").
		WithArgs(99, 7).
		WillReturnRows(flightReservationRows(99, 7, 3, "12A", model.StatusConfirmed))

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/payments/process",
		`{"type":"FLIGHT","reference_id":99,"provider":"card"}`, 7)

	require.NoError(t, h.ProcessPayment(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPayment_PendingPaymentExists(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM flight_reservations WHERE id = \\? AND user_id = \\?").
		WithArgs(99, 7).
		WillReturnRows(flightReservationRows(99, 7, 3, "12A", model.StatusPending))
	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM payments").
		WithArgs(model.PaymentTypeFlight, 99).
		WillReturnRows(existsRows(true))

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/payments/process",
		`{"type":"FLIGHT","reference_id":99,"provider":"card"}`, 7)

	require.NoError(t, h.ProcessPayment(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPayment_UnknownProvider(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	c, rec := newAuthedContext(t, http.MethodPost, "/v1/payments/process",
		`{"type":"FLIGHT","reference_id":99,"provider":"stripe"}`, 7)

	require.NoError(t, h.ProcessPayment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newWebhookContext(t *testing.T, provider, body string, header http.Header) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook/"+provider, strings.NewReader(body))
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("provider")
	c.SetParamValues(provider)
	return c, rec
}

func TestWebhook_UnknownProvider(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	c, rec := newWebhookContext(t, "stripe", `{}`, nil)

	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_InvalidCardSignature(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	header := http.Header{}
	header.Set(payment.SignatureHeader, "deadbeef")
	c, rec := newWebhookContext(t, "card", `{"transaction_id":"CARD-1","status":"succeeded"}`, header)

	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_MalformedBody(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	c, rec := newWebhookContext(t, "mpesa", `not json`, nil)

	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_IgnoredEventAcknowledged(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	c, rec := newWebhookContext(t, "paypal", `{"event_type":"CHECKOUT.ORDER.APPROVED","resource":{}}`, nil)

	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhook_MpesaSuccessConfirmsReservation(t *testing.T) {
	h, mock := newPaymentTestHandler(t)

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"MPESA-1","ResultCode":0,"ResultDesc":"ok"}}}`

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE transaction_id = \\? FOR UPDATE").
		WithArgs("MPESA-1").
		WillReturnRows(pendingPaymentRows(10, "MPESA-1", model.PaymentTypeFlight, 99, model.PaymentPending))
	mock.ExpectExec("UPDATE payments SET status = \\?, metadata = \\?").
		WithArgs(model.PaymentCompleted, body, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM flight_reservations WHERE id = \\? FOR UPDATE").
		WithArgs(99).
		WillReturnRows(flightReservationRows(99, 7, 3, "12A", model.StatusPending))
	mock.ExpectExec("UPDATE flight_reservations SET status = \\?").
		WithArgs(model.StatusConfirmed, 99).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newWebhookContext(t, "mpesa", body, nil)

	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
