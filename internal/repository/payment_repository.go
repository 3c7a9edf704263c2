package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// PaymentRepo persists payment attempts.  Rows are created PENDING
// when a payment is initiated and mutated exactly once by the webhook
// reconciler; the provider transaction id is the unique key webhooks
// use to find them.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying handle so the reconciler can open
// transactions spanning payments and reservations.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

const paymentColumns = `id, transaction_id, type, reference_id, amount_cents, currency,
       provider, status, metadata, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*model.Payment, error) {
	var p model.Payment
	var meta sql.NullString
	if err := row.Scan(
		&p.ID, &p.TransactionID, &p.Type, &p.ReferenceID, &p.AmountCents, &p.Currency,
		&p.Provider, &p.Status, &meta, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if meta.Valid {
		m := meta.String
		p.Metadata = &m
	}
	return &p, nil
}

// Create inserts a new payment row and populates the generated ID and
// timestamps on the provided record.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (transaction_id, type, reference_id, amount_cents, currency, provider, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		p.TransactionID, p.Type, p.ReferenceID, p.AmountCents, p.Currency, p.Provider, p.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	got, err := scanPayment(r.db.QueryRowContext(ctx, sel, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByTransactionID looks a payment up by its provider transaction id.
func (r *PaymentRepo) GetByTransactionID(ctx context.Context, txnID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = ?`
	return scanPayment(r.db.QueryRowContext(ctx, q, txnID))
}

// GetByTransactionIDTx is the locked lookup used by the webhook
// reconciler.  Concurrent deliveries of the same webhook serialize on
// this row, which is what makes replay handling a simple status
// comparison.
func (r *PaymentRepo) GetByTransactionIDTx(ctx context.Context, tx *sql.Tx, txnID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = ? FOR UPDATE`
	return scanPayment(tx.QueryRowContext(ctx, q, txnID))
}

// UpdateStatusTx sets the payment status and stores the raw provider
// payload in the metadata column for audit.
func (r *PaymentRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status, metadata string) error {
	const q = `UPDATE payments SET status = ?, metadata = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, metadata, id)
	return err
}

// ExistsPendingForReference reports whether a pending payment already
// exists for the given reservation/booking, so a traveler cannot
// start two payment flows for the same record.
func (r *PaymentRepo) ExistsPendingForReference(ctx context.Context, typ string, referenceID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM payments WHERE type = ? AND reference_id = ? AND status = 'PENDING')`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, typ, referenceID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
