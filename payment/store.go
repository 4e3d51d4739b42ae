package payment

import (
	"context"

	"github.com/xraph/bookkeeper/id"
)

// Store reads payments. Payments are written only through an invoice
// transaction so the invoice's derived fields move with them.
type Store interface {
	GetPayment(ctx context.Context, payID id.PaymentID) (*Payment, error)
	ListPayments(ctx context.Context, invID id.InvoiceID) ([]*Payment, error)
}
