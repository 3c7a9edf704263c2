package payment

import (
	"encoding/json"
	"net/http"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// PaypalNormalizer maps PayPal-style event webhooks: a flat envelope
// with an event_type string and the transaction id inside resource.
// Only capture events are relevant; every other event type is
// acknowledged and dropped.
type PaypalNormalizer struct{}

func (PaypalNormalizer) Provider() string { return "paypal" }

// paypalEventStatus is the fixed per-provider lookup table from
// event_type to internal payment status.
var paypalEventStatus = map[string]string{
	"PAYMENT.CAPTURE.COMPLETED": model.PaymentCompleted,
	"PAYMENT.CAPTURE.DENIED":    model.PaymentFailed,
	"PAYMENT.CAPTURE.REFUNDED":  model.PaymentFailed,
	"PAYMENT.CAPTURE.PENDING":   model.PaymentPending,
}

type paypalEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID       string `json:"id"`
		CustomID string `json:"custom_id"`
	} `json:"resource"`
}

func (PaypalNormalizer) Normalize(body []byte, _ http.Header) (*NormalizedEvent, error) {
	var evt paypalEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, err
	}
	status, ok := paypalEventStatus[evt.EventType]
	if !ok {
		// Unrecognized event types are a no-op, not an error.
		return &NormalizedEvent{Raw: string(body), Ignore: true}, nil
	}
	txnID := evt.Resource.CustomID
	if txnID == "" {
		txnID = evt.Resource.ID
	}
	return &NormalizedEvent{
		TransactionID: txnID,
		Status:        status,
		Raw:           string(body),
	}, nil
}
