package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
)

// Reconcile runs fn inside a gorm transaction. The invoice row is written
// back only if its version is unchanged since it was read; otherwise the
// transaction rolls back with bookkeeper.ErrConflict.
func (s *Store) Reconcile(ctx context.Context, invID id.InvoiceID, fn func(tx invoice.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findInvoice(tx, invID)
		if err != nil {
			return err
		}
		inv, err := fromInvoiceModel(m)
		if err != nil {
			return err
		}
		return fn(&gormTx{db: tx, inv: inv})
	})
}

type gormTx struct {
	db  *gorm.DB
	inv *invoice.Invoice
}

func (t *gormTx) Invoice() *invoice.Invoice {
	cp := *t.inv
	return &cp
}

func (t *gormTx) Payments(_ context.Context) ([]*payment.Payment, error) {
	return listPayments(t.db, t.inv.ID)
}

func (t *gormTx) InsertPayment(_ context.Context, p *payment.Payment) error {
	if err := t.db.Create(toPaymentModel(p)).Error; err != nil {
		return wrap("insert payment", err)
	}
	return nil
}

func (t *gormTx) DeletePayment(_ context.Context, payID id.PaymentID) error {
	res := t.db.Where("id = ? AND invoice_id = ?", payID.String(), t.inv.ID.String()).Delete(&paymentModel{})
	if res.Error != nil {
		return wrap("delete payment", res.Error)
	}
	if res.RowsAffected == 0 {
		return bookkeeper.ErrPaymentNotFound
	}
	return nil
}

func (t *gormTx) DeleteAllPayments(_ context.Context) error {
	if err := t.db.Where("invoice_id = ?", t.inv.ID.String()).Delete(&paymentModel{}).Error; err != nil {
		return wrap("delete payments", err)
	}
	return nil
}

func (t *gormTx) SaveInvoice(_ context.Context, inv *invoice.Invoice) error {
	inv.Version = t.inv.Version + 1
	m := toInvoiceModel(inv)
	m.UpdatedAt = now()

	res := t.db.Model(&invoiceModel{}).
		Where("id = ? AND version = ?", m.ID, t.inv.Version).
		Updates(invoiceColumns(m))
	if res.Error != nil {
		return wrap("save invoice", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("bookkeeper/sqlite: invoice %s: %w", m.ID, bookkeeper.ErrConflict)
	}
	return nil
}
