package payment

import (
	"encoding/json"
	"net/http"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// MpesaNormalizer maps M-Pesa STK push callbacks.  The payload nests
// the interesting fields under Body.stkCallback; ResultCode 0 means
// the charge went through, any other code is a failure.  M-Pesa does
// not sign callbacks, so there is nothing to verify here.
type MpesaNormalizer struct{}

func (MpesaNormalizer) Provider() string { return "mpesa" }

type mpesaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

func (MpesaNormalizer) Normalize(body []byte, _ http.Header) (*NormalizedEvent, error) {
	var cb mpesaCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, err
	}
	ev := &NormalizedEvent{
		TransactionID: cb.Body.StkCallback.CheckoutRequestID,
		Raw:           string(body),
	}
	if cb.Body.StkCallback.ResultCode == 0 {
		ev.Status = model.PaymentCompleted
	} else {
		ev.Status = model.PaymentFailed
	}
	return ev, nil
}
