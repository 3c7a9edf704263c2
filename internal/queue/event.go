// Package queue carries reservation events between the API and
// background consumers over RabbitMQ.
package queue

// ReservationConfirmedEvent is published after a payment webhook
// confirms a flight reservation or hotel booking.  Consumers use it
// for side work (notifications, the confirmation audit log); the
// booking itself is already committed when the event is published.
type ReservationConfirmedEvent struct {
	PaymentID     uint64 `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`         // FLIGHT or HOTEL
	ReferenceID   uint64 `json:"reference_id"` // reservation or booking id
	AmountCents   uint32 `json:"amount_cents"`
	Currency      string `json:"currency"`
	Provider      string `json:"provider"`
}
