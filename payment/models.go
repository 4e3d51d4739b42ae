// Package payment defines itemized payments recorded against invoices.
// An invoice's paid amount is always the sum of its payments.
package payment

import (
	"sort"
	"time"

	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/types"
)

// Payment is an immutable amount received against an invoice.
type Payment struct {
	ID          id.PaymentID `json:"id"`
	InvoiceID   id.InvoiceID `json:"invoice_id"`
	Amount      types.Money  `json:"amount"`
	PaymentDate types.Date   `json:"payment_date"`
	Notes       string       `json:"notes,omitempty"`
	// Manual is set on payments synthesized by marking an invoice paid.
	Manual    bool      `json:"manual"`
	CreatedAt time.Time `json:"created_at"`
}

// Input carries the fields accepted when recording a payment.
type Input struct {
	InvoiceID   id.InvoiceID `json:"invoice_id"`
	Amount      types.Money  `json:"amount"`
	PaymentDate types.Date   `json:"payment_date"`
	Notes       string       `json:"notes,omitempty"`
}

// Total sums the payment amounts in currency. Payments in another currency
// are never accepted, so they cannot appear here.
func Total(currency string, payments []*Payment) types.Money {
	total := types.Zero(currency)
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Sort orders payments by payment date, then by creation time.
func Sort(payments []*Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if a.PaymentDate != b.PaymentDate {
			return a.PaymentDate.Before(b.PaymentDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
