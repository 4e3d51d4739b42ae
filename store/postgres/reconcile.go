package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
)

// Reconcile locks the invoice row with SELECT ... FOR UPDATE and runs fn in
// the same transaction. Concurrent reconciliations of one invoice queue on
// the row lock; fn's error rolls everything back and is returned as is.
func (s *Store) Reconcile(ctx context.Context, invID id.InvoiceID, fn func(tx invoice.Tx) error) error {
	tx, err := s.pg.BeginTxQuery(ctx, &driver.TxOptions{IsolationLevel: driver.LevelReadCommitted})
	if err != nil {
		return wrap("begin reconcile", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	m := new(invoiceModel)
	err = tx.NewSelect(m).
		Where("id = $1", invID.String()).
		ForUpdate().
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return bookkeeper.ErrInvoiceNotFound
		}
		return wrap("lock invoice", err)
	}
	inv, err := fromInvoiceModel(m)
	if err != nil {
		return err
	}

	if err := fn(&pgTx{tx: tx, inv: inv}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit reconcile", err)
	}
	return nil
}

// pgTx runs every change directly inside the locked transaction.
type pgTx struct {
	tx  *pgdriver.PgTx
	inv *invoice.Invoice
}

func (t *pgTx) Invoice() *invoice.Invoice {
	cp := *t.inv
	return &cp
}

func (t *pgTx) Payments(ctx context.Context) ([]*payment.Payment, error) {
	var models []paymentModel
	err := t.tx.NewSelect(&models).
		Where("invoice_id = $1", t.inv.ID.String()).
		OrderExpr("payment_date ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrap("list payments", err)
	}
	return fromPaymentModels(models)
}

func (t *pgTx) InsertPayment(ctx context.Context, p *payment.Payment) error {
	if _, err := t.tx.NewInsert(toPaymentModel(p)).Exec(ctx); err != nil {
		return wrap("insert payment", err)
	}
	return nil
}

func (t *pgTx) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	res, err := t.tx.NewDelete((*paymentModel)(nil)).
		Where("id = $1", payID.String()).
		Where("invoice_id = $2", t.inv.ID.String()).
		Exec(ctx)
	if err != nil {
		return wrap("delete payment", err)
	}
	return expectRow(res, bookkeeper.ErrPaymentNotFound)
}

func (t *pgTx) DeleteAllPayments(ctx context.Context) error {
	_, err := t.tx.NewDelete((*paymentModel)(nil)).
		Where("invoice_id = $1", t.inv.ID.String()).
		Exec(ctx)
	if err != nil {
		return wrap("delete payments", err)
	}
	return nil
}

func (t *pgTx) SaveInvoice(ctx context.Context, inv *invoice.Invoice) error {
	inv.Version = t.inv.Version + 1
	m := toInvoiceModel(inv)
	m.UpdatedAt = now()

	res, err := t.tx.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return wrap("save invoice", err)
	}
	if err := expectRow(res, bookkeeper.ErrInvoiceNotFound); err != nil {
		return fmt.Errorf("bookkeeper/postgres: save invoice: %w", err)
	}
	return nil
}
