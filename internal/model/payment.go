package model

import "time"

// Payment type tags linking a payment to the kind of record it pays for.
const (
	PaymentTypeFlight = "FLIGHT"
	PaymentTypeHotel  = "HOTEL"
)

// Payment status values.  A payment starts PENDING and is mutated
// exactly once by the webhook reconciler when the provider reports a
// terminal state.  Replayed webhooks for a state already applied are
// no-ops.
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// Payment tracks one payment attempt against a flight reservation or
// hotel booking.  The provider-assigned transaction identifier is
// unique and is the key webhooks use to locate the row.  Metadata
// stores the raw provider payload for audit.
//
// Fields:
//  ID            – primary key identifier.
//  TransactionID – provider transaction identifier (unique).
//  Type          – FLIGHT or HOTEL; selects which table ReferenceID points into.
//  ReferenceID   – id of the flight reservation or hotel booking being paid.
//  AmountCents   – amount charged in cents.
//  Currency      – ISO 4217 currency code.
//  Provider      – payment provider name (mpesa, paypal, card).
//  Status        – PENDING, COMPLETED or FAILED.
//  Metadata      – raw provider payload stored as JSON for audit (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Payment struct {
	ID            uint64    // payments.id
	TransactionID string    // payments.transaction_id
	Type          string    // payments.type
	ReferenceID   uint64    // payments.reference_id
	AmountCents   uint32    // payments.amount_cents
	Currency      string    // payments.currency
	Provider      string    // payments.provider
	Status        string    // payments.status
	Metadata      *string   // payments.metadata (nullable)
	CreatedAt     time.Time // payments.created_at
	UpdatedAt     time.Time // payments.updated_at
}
