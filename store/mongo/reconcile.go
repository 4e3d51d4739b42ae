package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
)

// Reconcile runs inside a session transaction. It loads the invoice and its
// payments, lets fn edit a buffered copy and commits the invoice swap and the
// payment writes together. The swap only matches the version that was loaded;
// otherwise the transaction aborts with bookkeeper.ErrConflict.
func (s *Store) Reconcile(ctx context.Context, invID id.InvoiceID, fn func(tx invoice.Tx) error) error {
	return s.inTransaction(ctx, func(ctx context.Context) error {
		m, err := s.findInvoice(ctx, invID)
		if err != nil {
			return err
		}
		inv, err := fromInvoiceModel(m)
		if err != nil {
			return err
		}
		loaded, err := s.ListPayments(ctx, invID)
		if err != nil {
			return err
		}

		tx := &bufferedTx{inv: *inv, payments: loaded}
		if err := fn(tx); err != nil {
			return err
		}
		if tx.saved == nil && !tx.dirty {
			return nil
		}
		return s.commit(ctx, tx, loaded)
	})
}

// inTransaction runs fn with a context bound to a session transaction.
// Transient transaction errors make the driver run fn again.
func (s *Store) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.mdb.Client().StartSession()
	if err != nil {
		return wrap("start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (s *Store) commit(ctx context.Context, tx *bufferedTx, loaded []*payment.Payment) error {
	next := tx.saved
	if next == nil {
		cp := tx.inv
		cp.Version = tx.inv.Version + 1
		next = &cp
	}
	m := toInvoiceModel(next)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "version": tx.inv.Version}).
		Exec(ctx)
	if err != nil {
		return wrap("save invoice", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.findInvoice(ctx, tx.inv.ID); err != nil {
			return err
		}
		return fmt.Errorf("bookkeeper/mongo: invoice %s: %w", tx.inv.ID, bookkeeper.ErrConflict)
	}

	keep := make(map[string]bool, len(tx.payments))
	for _, p := range tx.payments {
		keep[p.ID.String()] = true
	}
	existing := make(map[string]bool, len(loaded))
	var removed []string
	for _, p := range loaded {
		existing[p.ID.String()] = true
		if !keep[p.ID.String()] {
			removed = append(removed, p.ID.String())
		}
	}

	if len(removed) > 0 {
		_, err := s.mdb.NewDelete((*paymentModel)(nil)).
			Filter(bson.M{"_id": bson.M{"$in": removed}}).
			Many().
			Exec(ctx)
		if err != nil {
			return wrap("delete payments", err)
		}
	}
	for _, p := range tx.payments {
		if existing[p.ID.String()] {
			continue
		}
		if _, err := s.mdb.NewInsert(toPaymentModel(p)).Exec(ctx); err != nil {
			return wrap("insert payment", err)
		}
	}
	return nil
}

// bufferedTx collects the changes of one Reconcile call.
type bufferedTx struct {
	inv      invoice.Invoice
	payments []*payment.Payment
	saved    *invoice.Invoice
	dirty    bool
}

func (tx *bufferedTx) Invoice() *invoice.Invoice {
	cp := tx.inv
	return &cp
}

func (tx *bufferedTx) Payments(_ context.Context) ([]*payment.Payment, error) {
	result := make([]*payment.Payment, len(tx.payments))
	for i, p := range tx.payments {
		cp := *p
		result[i] = &cp
	}
	payment.Sort(result)
	return result, nil
}

func (tx *bufferedTx) InsertPayment(_ context.Context, p *payment.Payment) error {
	for _, existing := range tx.payments {
		if existing.ID.String() == p.ID.String() {
			return bookkeeper.ErrAlreadyExists
		}
	}
	cp := *p
	tx.payments = append(tx.payments, &cp)
	tx.dirty = true
	return nil
}

func (tx *bufferedTx) DeletePayment(_ context.Context, payID id.PaymentID) error {
	for i, p := range tx.payments {
		if p.ID.String() == payID.String() {
			tx.payments = append(tx.payments[:i], tx.payments[i+1:]...)
			tx.dirty = true
			return nil
		}
	}
	return bookkeeper.ErrPaymentNotFound
}

func (tx *bufferedTx) DeleteAllPayments(_ context.Context) error {
	if len(tx.payments) > 0 {
		tx.dirty = true
	}
	tx.payments = nil
	return nil
}

func (tx *bufferedTx) SaveInvoice(_ context.Context, inv *invoice.Invoice) error {
	inv.Version = tx.inv.Version + 1
	cp := *inv
	tx.saved = &cp
	return nil
}
