// Package payment contains the provider-facing half of the payment
// workflow: one normalizer per payment provider that verifies and
// translates that provider's webhook payload into the internal event
// shape, and the reconciler that applies a normalized event to the
// payment and its linked reservation or booking in one transaction.
//
// Providers are added by registering another Normalizer, never by
// branching inside shared logic.
package payment

import (
	"errors"
	"net/http"
)

// ErrInvalidSignature is returned by normalizers whose provider signs
// webhook deliveries when verification fails. The webhook handler
// must fail closed: no state is touched.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// NormalizedEvent is the single shape every provider payload is
// mapped to before it reaches the reconciler.
type NormalizedEvent struct {
	TransactionID string // provider transaction id used to locate the payment row
	Status        string // PENDING, COMPLETED or FAILED
	Raw           string // raw payload, stored in payments.metadata for audit
	Ignore        bool   // set for recognized-but-irrelevant event types; dropped silently
}

// Normalizer verifies and maps one provider's webhook payload.
// Implementations must not touch any state; verification failures are
// reported via ErrInvalidSignature and malformed payloads via a plain
// error.
type Normalizer interface {
	Provider() string
	Normalize(body []byte, header http.Header) (*NormalizedEvent, error)
}

// Registry maps provider names (as they appear in the webhook URL) to
// their normalizers.
type Registry map[string]Normalizer

// NewRegistry builds a registry from the given normalizers.
func NewRegistry(ns ...Normalizer) Registry {
	reg := make(Registry, len(ns))
	for _, n := range ns {
		reg[n.Provider()] = n
	}
	return reg
}

// Lookup returns the normalizer registered for the provider name.
func (r Registry) Lookup(provider string) (Normalizer, bool) {
	n, ok := r[provider]
	return n, ok
}
