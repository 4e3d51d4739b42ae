// Package invoice defines invoices and the transaction boundary used to keep
// their paid amount in step with their payments.
package invoice

import (
	"fmt"

	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/types"
)

// NumberPrefix starts every human-readable invoice number.
const NumberPrefix = "FAT"

// Status is the payment state of an invoice, derived from its amounts.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

// Invoice is a bill issued to a customer.
//
// PaidAmount and Paid are derived from the invoice's payments and are only
// written by the reconciliation path. Version increases on every write so
// backends without row locks can detect a concurrent writer.
type Invoice struct {
	types.Entity
	ID          id.InvoiceID  `json:"id"`
	Number      string        `json:"invoice_number"`
	Sequence    int64         `json:"sequence"`
	UserID      string        `json:"user_id"`
	CustomerID  id.CustomerID `json:"customer_id"`
	Description string        `json:"description,omitempty"`
	Amount      types.Money   `json:"amount"`
	PaidAmount  types.Money   `json:"paid_amount"`
	Paid        bool          `json:"paid"`
	Date        types.Date    `json:"date"`
	Version     int64         `json:"version"`
}

// FormatNumber renders the per-user sequence as an invoice number.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", NumberPrefix, seq)
}

// Remaining returns the outstanding balance.
func (inv *Invoice) Remaining() types.Money {
	return inv.Amount.Subtract(inv.PaidAmount)
}

// ApplyPayments sets the derived fields from the total of all payments.
func (inv *Invoice) ApplyPayments(total types.Money) {
	inv.PaidAmount = total
	inv.Paid = total.Amount >= inv.Amount.Amount
}

// Status reports whether the invoice is unpaid, partially paid or paid.
func (inv *Invoice) Status() Status {
	switch {
	case inv.Paid:
		return StatusPaid
	case inv.PaidAmount.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// Input carries the fields accepted when creating an invoice.
type Input struct {
	UserID      string        `json:"user_id"`
	CustomerID  id.CustomerID `json:"customer_id"`
	Description string        `json:"description,omitempty"`
	Amount      types.Money   `json:"amount"`
	Date        types.Date    `json:"date"`
	// ManuallyPaid records a single payment for the full amount on creation.
	ManuallyPaid bool `json:"paid"`
}

// Patch is a partial update. Nil fields are left untouched. Paid toggles
// the payment state: true settles the remaining balance with one payment,
// false removes every payment.
type Patch struct {
	CustomerID  *id.CustomerID `json:"customer_id,omitempty"`
	Description *string        `json:"description,omitempty"`
	Amount      *types.Money   `json:"amount,omitempty"`
	Date        *types.Date    `json:"date,omitempty"`
	Paid        *bool          `json:"paid,omitempty"`
}
