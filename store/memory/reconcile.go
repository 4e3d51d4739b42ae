package memory

import (
	"context"
	"sync"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
)

// Reconcile serializes fn per invoice with a dedicated mutex. fn works on
// private copies; they replace the stored invoice and payment set only when
// fn succeeds.
func (s *Store) Reconcile(ctx context.Context, invID id.InvoiceID, fn func(tx invoice.Tx) error) error {
	lock := s.invoiceLock(invID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	stored, ok := s.invoices[invID.String()]
	if !ok {
		s.mu.RUnlock()
		s.dropInvoiceLock(invID)
		return bookkeeper.ErrInvoiceNotFound
	}
	tx := &memTx{
		inv:      *stored,
		payments: s.paymentsOf(invID),
	}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[invID.String()]; !ok {
		s.dropInvoiceLock(invID)
		return bookkeeper.ErrInvoiceNotFound
	}
	for key, p := range s.payments {
		if p.InvoiceID.String() == invID.String() {
			delete(s.payments, key)
		}
	}
	for _, p := range tx.payments {
		s.payments[p.ID.String()] = p
	}
	if tx.saved != nil {
		s.invoices[invID.String()] = tx.saved
	}
	return nil
}

// invoiceLock returns the mutex serializing reconciliation of invID.
func (s *Store) invoiceLock(invID id.InvoiceID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[invID.String()]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[invID.String()] = lock
	}
	return lock
}

// dropInvoiceLock forgets the mutex of an invoice that no longer exists.
// Callers still waiting on the old mutex find the invoice gone once they
// acquire it.
func (s *Store) dropInvoiceLock(invID id.InvoiceID) {
	s.locksMu.Lock()
	delete(s.locks, invID.String())
	s.locksMu.Unlock()
}

// memTx buffers the changes of one Reconcile call.
type memTx struct {
	inv      invoice.Invoice
	payments []*payment.Payment
	saved    *invoice.Invoice
}

func (tx *memTx) Invoice() *invoice.Invoice {
	cp := tx.inv
	return &cp
}

func (tx *memTx) Payments(_ context.Context) ([]*payment.Payment, error) {
	result := make([]*payment.Payment, len(tx.payments))
	for i, p := range tx.payments {
		cp := *p
		result[i] = &cp
	}
	payment.Sort(result)
	return result, nil
}

func (tx *memTx) InsertPayment(_ context.Context, p *payment.Payment) error {
	for _, existing := range tx.payments {
		if existing.ID.String() == p.ID.String() {
			return bookkeeper.ErrAlreadyExists
		}
	}
	cp := *p
	tx.payments = append(tx.payments, &cp)
	return nil
}

func (tx *memTx) DeletePayment(_ context.Context, payID id.PaymentID) error {
	for i, p := range tx.payments {
		if p.ID.String() == payID.String() {
			tx.payments = append(tx.payments[:i], tx.payments[i+1:]...)
			return nil
		}
	}
	return bookkeeper.ErrPaymentNotFound
}

func (tx *memTx) DeleteAllPayments(_ context.Context) error {
	tx.payments = nil
	return nil
}

func (tx *memTx) SaveInvoice(_ context.Context, inv *invoice.Invoice) error {
	inv.Version = tx.inv.Version + 1
	cp := *inv
	tx.saved = &cp
	return nil
}
