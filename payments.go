package bookkeeper

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/types"
)

// ──────────────────────────────────────────────────
// Payment Reconciliation
// ──────────────────────────────────────────────────

// AddPayment records a payment against an invoice and recomputes the
// invoice's paid amount from all of its payments. The amount must be
// positive and no larger than the balance still outstanding; both checks
// run under the invoice's reconciliation lock before anything is written.
// A zero payment date is read as today.
func (b *Bookkeeper) AddPayment(ctx context.Context, in payment.Input) (*payment.Payment, error) {
	amount, err := b.amount("amount", in.Amount)
	if err != nil {
		b.plugins.EmitPaymentRejected(ctx, in, err)
		return nil, err
	}
	if in.InvoiceID.IsNil() {
		return nil, ValidationError{Field: "invoice_id", Message: "is required"}
	}
	date := b.dateOrToday(in.PaymentDate)

	var (
		p       *payment.Payment
		settled *invoice.Invoice
		wasPaid bool
	)
	err = b.reconcile(ctx, in.InvoiceID, func(tx invoice.Tx) error {
		inv := tx.Invoice()
		wasPaid = inv.Paid

		if !amount.SameCurrency(inv.Amount) {
			return fmt.Errorf("%w: %w", ValidationError{
				Field:   "amount",
				Message: fmt.Sprintf("currency %q does not match invoice currency %q", amount.Currency, inv.Amount.Currency),
			}, ErrCurrencyMismatch)
		}

		payments, err := tx.Payments(ctx)
		if err != nil {
			return err
		}
		remaining := inv.Amount.Subtract(payment.Total(inv.Amount.Currency, payments))
		if amount.GreaterThan(remaining) {
			return ValidationError{
				Field:   "amount",
				Message: fmt.Sprintf("%s exceeds the remaining balance of %s", amount, remaining),
			}
		}

		p = &payment.Payment{
			ID:          id.NewPaymentID(),
			InvoiceID:   inv.ID,
			Amount:      amount,
			PaymentDate: date,
			Notes:       in.Notes,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}

		settled = inv
		return b.settle(ctx, tx, inv)
	})
	if err != nil {
		if IsValidation(err) {
			b.plugins.EmitPaymentRejected(ctx, in, err)
		}
		return nil, err
	}

	b.logger.Debug("payment recorded",
		"invoice_id", settled.ID.String(),
		"payment_id", p.ID.String(),
		"amount", p.Amount.String(),
		"paid_amount", settled.PaidAmount.String(),
	)

	b.plugins.EmitPaymentRecorded(ctx, p, settled)
	if settled.Paid && !wasPaid {
		b.plugins.EmitInvoicePaid(ctx, settled)
	}
	return p, nil
}

// DeletePayment removes a payment and recomputes its invoice's paid amount
// from the payments that remain.
func (b *Bookkeeper) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	p, err := b.store.GetPayment(ctx, payID)
	if err != nil {
		return err
	}

	var settled *invoice.Invoice
	err = b.reconcile(ctx, p.InvoiceID, func(tx invoice.Tx) error {
		if err := tx.DeletePayment(ctx, payID); err != nil {
			return err
		}
		settled = tx.Invoice()
		return b.settle(ctx, tx, settled)
	})
	if err != nil {
		return err
	}

	b.plugins.EmitPaymentDeleted(ctx, p, settled)
	return nil
}

// GetPayment retrieves a payment by ID.
func (b *Bookkeeper) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	return b.store.GetPayment(ctx, payID)
}

// ListPayments lists an invoice's payments by payment date.
func (b *Bookkeeper) ListPayments(ctx context.Context, invID id.InvoiceID) ([]*payment.Payment, error) {
	if _, err := b.store.GetInvoice(ctx, invID); err != nil {
		return nil, err
	}
	payments, err := b.store.ListPayments(ctx, invID)
	if err != nil {
		return nil, err
	}
	payment.Sort(payments)
	return payments, nil
}

// settle recomputes inv's derived fields from the payments visible in tx
// and writes them.
func (b *Bookkeeper) settle(ctx context.Context, tx invoice.Tx, inv *invoice.Invoice) error {
	payments, err := tx.Payments(ctx)
	if err != nil {
		return err
	}
	inv.ApplyPayments(payment.Total(inv.Amount.Currency, payments))
	inv.Touch()
	return tx.SaveInvoice(ctx, inv)
}

// payRemaining records one manual payment for whatever inv still owes.
func (b *Bookkeeper) payRemaining(ctx context.Context, tx invoice.Tx, inv *invoice.Invoice, date types.Date) error {
	payments, err := tx.Payments(ctx)
	if err != nil {
		return err
	}
	remaining := inv.Amount.Subtract(payment.Total(inv.Amount.Currency, payments))
	if !remaining.IsPositive() {
		return nil
	}
	return tx.InsertPayment(ctx, &payment.Payment{
		ID:          id.NewPaymentID(),
		InvoiceID:   inv.ID,
		Amount:      remaining,
		PaymentDate: date,
		Notes:       "Marked as paid",
		Manual:      true,
		CreatedAt:   time.Now().UTC(),
	})
}

// reconcile runs fn through the store's per-invoice transaction and retries
// it when a concurrent writer won the race. fn may run more than once.
func (b *Bookkeeper) reconcile(ctx context.Context, invID id.InvoiceID, fn func(tx invoice.Tx) error) error {
	var err error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		err = b.store.Reconcile(ctx, invID, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		b.logger.Debug("reconcile conflict, retrying",
			"invoice_id", invID.String(),
			"attempt", attempt+1,
			"error", err,
		)
	}
	return ConflictError{
		Resource: "invoice",
		ID:       invID.String(),
		Reason:   fmt.Sprintf("gave up after %d attempts", b.maxRetries+1),
		Err:      err,
	}
}
