package invoice

import (
	"context"

	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/types"
)

// Store persists invoices.
type Store interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	ListInvoices(ctx context.Context, userID string, opts ListOpts) ([]*Invoice, error)

	// DeleteInvoice removes the invoice together with its payments.
	DeleteInvoice(ctx context.Context, invID id.InvoiceID) error

	// NextInvoiceNumber atomically advances and returns the user's invoice
	// sequence. Values are never handed out twice, even after deletes.
	NextInvoiceNumber(ctx context.Context, userID string) (int64, error)

	// Reconcile runs fn with exclusive access to the invoice and its
	// payments. Changes made through tx are committed only when fn returns
	// nil. Backends without row locks return an error wrapping
	// bookkeeper.ErrConflict when another writer got there first.
	Reconcile(ctx context.Context, invID id.InvoiceID, fn func(tx Tx) error) error
}

// Tx is the view of one invoice inside Reconcile.
type Tx interface {
	// Invoice returns the invoice as loaded at the start of the transaction.
	// The returned value is a copy owned by the caller.
	Invoice() *Invoice

	// Payments returns the invoice's payments including changes made in tx.
	Payments(ctx context.Context) ([]*payment.Payment, error)
	InsertPayment(ctx context.Context, p *payment.Payment) error
	DeletePayment(ctx context.Context, payID id.PaymentID) error
	DeleteAllPayments(ctx context.Context) error

	// SaveInvoice writes the invoice's mutable fields and bumps its version.
	SaveInvoice(ctx context.Context, inv *Invoice) error
}

// ListOpts filters and pages invoice listings. Results are ordered by date,
// newest first, then by number.
type ListOpts struct {
	CustomerID id.CustomerID
	Status     Status
	From       types.Date
	To         types.Date
	Limit      int
	Offset     int
}

// Matches reports whether inv passes the filters in opts. Backends that
// filter in process use it; SQL and document backends push the same
// predicates into their queries.
func (o ListOpts) Matches(inv *Invoice) bool {
	if !o.CustomerID.IsNil() && inv.CustomerID.String() != o.CustomerID.String() {
		return false
	}
	if o.Status != "" && inv.Status() != o.Status {
		return false
	}
	if !o.From.IsZero() && inv.Date.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && inv.Date.After(o.To) {
		return false
	}
	return true
}
