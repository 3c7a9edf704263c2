package payment

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// Reconciler applies a normalized provider event to the payment row
// and its linked flight reservation or hotel booking.  Both writes
// happen inside one transaction: a crash can never leave the payment
// COMPLETED while the reservation is still pending.
//
// Duplicate and out-of-order webhook deliveries are expected.  The
// payment row is read with a row lock, so concurrent deliveries for
// the same transaction id serialize; re-applying a status the payment
// already holds is a no-op.
type Reconciler struct {
	db           *sql.DB
	payments     *repository.PaymentRepo
	reservations *repository.FlightReservationRepo
	bookings     *repository.HotelBookingRepo
	flights      *repository.FlightRepo
}

// NewReconciler constructs a Reconciler.  All dependencies must be
// non-nil.
func NewReconciler(db *sql.DB, payments *repository.PaymentRepo, reservations *repository.FlightReservationRepo, bookings *repository.HotelBookingRepo, flights *repository.FlightRepo) *Reconciler {
	if db == nil || payments == nil || reservations == nil || bookings == nil || flights == nil {
		panic("nil dependency passed to NewReconciler")
	}
	return &Reconciler{
		db:           db,
		payments:     payments,
		reservations: reservations,
		bookings:     bookings,
		flights:      flights,
	}
}

// Result describes what Apply did, so the caller can publish events
// or log after the transaction has committed.
type Result struct {
	Payment      *model.Payment
	Transitioned bool // a status change was written
}

// Apply reconciles one normalized event.  Events for unknown
// transaction ids and replays of already-applied statuses are dropped
// (nil Result.Transitioned); real processing failures return an error
// so the webhook endpoint responds 5xx and the provider retries.
func (r *Reconciler) Apply(ctx context.Context, ev *NormalizedEvent) (*Result, error) {
	if ev == nil || ev.Ignore {
		return &Result{}, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := r.payments.GetByTransactionIDTx(ctx, tx, ev.TransactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No payment for this transaction id; the event is dropped,
			// no retry is requested from the provider.
			log.Printf("reconciler: no payment for transaction %q, dropping event", ev.TransactionID)
			return &Result{}, nil
		}
		return nil, err
	}
	if p.Status == ev.Status {
		// Replay of an already-applied status.
		return &Result{Payment: p}, nil
	}
	if p.Status != model.PaymentPending {
		// Terminal state reached earlier with a different outcome;
		// never rewrite history.
		log.Printf("reconciler: payment %s already %s, ignoring %s event", p.TransactionID, p.Status, ev.Status)
		return &Result{Payment: p}, nil
	}

	if err := r.payments.UpdateStatusTx(ctx, tx, p.ID, ev.Status, ev.Raw); err != nil {
		return nil, err
	}
	switch ev.Status {
	case model.PaymentCompleted:
		if err := r.settle(ctx, tx, p, model.StatusConfirmed); err != nil {
			return nil, err
		}
	case model.PaymentFailed:
		if err := r.settle(ctx, tx, p, model.StatusCancelled); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	p.Status = ev.Status
	return &Result{Payment: p, Transitioned: true}, nil
}

// settle moves the record the payment pays for into its final state.
// Only PENDING records transition; a reservation the traveler already
// cancelled stays cancelled even if the payment later completes.
// Cancelling a flight reservation returns its seat to the flight.
func (r *Reconciler) settle(ctx context.Context, tx *sql.Tx, p *model.Payment, status string) error {
	switch p.Type {
	case model.PaymentTypeFlight:
		res, err := r.reservations.GetByIDTx(ctx, tx, p.ReferenceID)
		if err != nil {
			return err
		}
		if res.Status != model.StatusPending {
			log.Printf("reconciler: reservation %d is %s, leaving as-is", res.ID, res.Status)
			return nil
		}
		if err := r.reservations.UpdateStatusTx(ctx, tx, res.ID, status); err != nil {
			return err
		}
		if status == model.StatusCancelled {
			return r.flights.IncrementSeatsTx(ctx, tx, res.FlightID)
		}
		return nil
	case model.PaymentTypeHotel:
		b, err := r.bookings.GetByIDTx(ctx, tx, p.ReferenceID)
		if err != nil {
			return err
		}
		if b.Status != model.StatusPending {
			log.Printf("reconciler: booking %d is %s, leaving as-is", b.ID, b.Status)
			return nil
		}
		return r.bookings.UpdateStatusTx(ctx, tx, b.ID, status)
	}
	return errors.New("unknown payment type " + p.Type)
}
