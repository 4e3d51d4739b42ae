package bookkeeper

import (
	"context"
	"strings"

	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/types"
)

// ──────────────────────────────────────────────────
// Invoice Lifecycle
// ──────────────────────────────────────────────────

// CreateInvoice issues an invoice numbered from the user's sequence. When
// in.ManuallyPaid is set the full amount is recorded as one manual payment
// dated on the invoice date. A zero date is read as today.
func (b *Bookkeeper) CreateInvoice(ctx context.Context, in invoice.Input) (*invoice.Invoice, error) {
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}
	amount, err := b.amount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	if err := b.checkCustomer(ctx, in.UserID, in.CustomerID); err != nil {
		return nil, err
	}

	seq, err := b.store.NextInvoiceNumber(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	inv := &invoice.Invoice{
		Entity:      types.NewEntity(),
		ID:          id.NewInvoiceID(),
		Number:      invoice.FormatNumber(seq),
		Sequence:    seq,
		UserID:      in.UserID,
		CustomerID:  in.CustomerID,
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		PaidAmount:  types.Zero(amount.Currency),
		Date:        b.dateOrToday(in.Date),
	}

	if err := b.store.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	if in.ManuallyPaid {
		err := b.reconcile(ctx, inv.ID, func(tx invoice.Tx) error {
			settled := tx.Invoice()
			if err := b.payRemaining(ctx, tx, settled, settled.Date); err != nil {
				return err
			}
			if err := b.settle(ctx, tx, settled); err != nil {
				return err
			}
			inv = settled
			return nil
		})
		if err != nil {
			if delErr := b.store.DeleteInvoice(ctx, inv.ID); delErr != nil {
				b.logger.Error("failed to remove half-created invoice",
					"invoice_id", inv.ID.String(),
					"error", delErr,
				)
			}
			return nil, err
		}
	}

	b.logger.Debug("invoice created",
		"invoice_id", inv.ID.String(),
		"number", inv.Number,
		"amount", inv.Amount.String(),
		"paid", inv.Paid,
	)

	b.plugins.EmitInvoiceCreated(ctx, inv)
	if inv.Paid {
		b.plugins.EmitInvoicePaid(ctx, inv)
	}
	return inv, nil
}

// GetInvoice retrieves an invoice by ID.
func (b *Bookkeeper) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	return b.store.GetInvoice(ctx, invID)
}

// ListInvoices lists a user's invoices, newest first.
func (b *Bookkeeper) ListInvoices(ctx context.Context, userID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return b.store.ListInvoices(ctx, userID, opts)
}

// UpdateInvoice applies patch to an invoice under its reconciliation lock.
//
// Paid=false removes every payment before any other change; Paid=true
// records a manual payment dated today for the remaining balance after the
// other changes. Lowering the amount below what has already been received
// is rejected.
func (b *Bookkeeper) UpdateInvoice(ctx context.Context, invID id.InvoiceID, patch invoice.Patch) (*invoice.Invoice, error) {
	current, err := b.store.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}

	if patch.Amount != nil {
		amount, err := b.amount("amount", *patch.Amount)
		if err != nil {
			return nil, err
		}
		patch.Amount = &amount
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return nil, ValidationError{Field: "date", Message: "is required"}
	}
	if patch.CustomerID != nil {
		if err := b.checkCustomer(ctx, current.UserID, *patch.CustomerID); err != nil {
			return nil, err
		}
	}

	return b.updateInvoice(ctx, invID, patch, b.today())
}

// MarkPaid settles an invoice's remaining balance with one manual payment
// dated on date, today when date is zero. Already paid invoices are left
// as they are.
func (b *Bookkeeper) MarkPaid(ctx context.Context, invID id.InvoiceID, date types.Date) (*invoice.Invoice, error) {
	paid := true
	return b.updateInvoice(ctx, invID, invoice.Patch{Paid: &paid}, b.dateOrToday(date))
}

// MarkUnpaid removes every payment of an invoice.
func (b *Bookkeeper) MarkUnpaid(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	paid := false
	return b.updateInvoice(ctx, invID, invoice.Patch{Paid: &paid}, types.Date{})
}

func (b *Bookkeeper) updateInvoice(ctx context.Context, invID id.InvoiceID, patch invoice.Patch, paidOn types.Date) (*invoice.Invoice, error) {
	var (
		updated *invoice.Invoice
		wasPaid bool
	)
	err := b.reconcile(ctx, invID, func(tx invoice.Tx) error {
		inv := tx.Invoice()
		wasPaid = inv.Paid

		if patch.Paid != nil && !*patch.Paid {
			if err := tx.DeleteAllPayments(ctx); err != nil {
				return err
			}
		}

		if patch.CustomerID != nil {
			inv.CustomerID = *patch.CustomerID
		}
		if patch.Description != nil {
			inv.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Date != nil {
			inv.Date = *patch.Date
		}
		if patch.Amount != nil {
			payments, err := tx.Payments(ctx)
			if err != nil {
				return err
			}
			received := payment.Total(inv.Amount.Currency, payments)
			if patch.Amount.LessThan(received) {
				return ValidationError{
					Field:   "amount",
					Message: "is below the " + received.String() + " already received",
				}
			}
			inv.Amount = *patch.Amount
		}

		if patch.Paid != nil && *patch.Paid {
			if err := b.payRemaining(ctx, tx, inv, paidOn); err != nil {
				return err
			}
		}

		if err := b.settle(ctx, tx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.plugins.EmitInvoiceUpdated(ctx, updated)
	if updated.Paid && !wasPaid {
		b.plugins.EmitInvoicePaid(ctx, updated)
	}
	return updated, nil
}

// DeleteInvoice deletes an invoice together with its payments.
func (b *Bookkeeper) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	inv, err := b.store.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}

	if err := b.store.DeleteInvoice(ctx, invID); err != nil {
		return err
	}

	b.plugins.EmitInvoiceDeleted(ctx, inv)
	return nil
}

// checkCustomer requires custID to name a customer owned by userID.
func (b *Bookkeeper) checkCustomer(ctx context.Context, userID string, custID id.CustomerID) error {
	if custID.IsNil() {
		return ValidationError{Field: "customer_id", Message: "is required"}
	}
	c, err := b.store.GetCustomer(ctx, custID)
	if err != nil {
		if IsNotFound(err) {
			return ValidationError{Field: "customer_id", Message: "customer " + custID.String() + " does not exist"}
		}
		return err
	}
	if c.UserID != userID {
		return ValidationError{Field: "customer_id", Message: "customer " + custID.String() + " does not exist"}
	}
	return nil
}
