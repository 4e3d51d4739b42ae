// Package memory implements store.Store in process memory. It is meant for
// tests, demos and the CLI's throwaway mode; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every entity in maps guarded by one RWMutex. Values are
// copied on the way in and out so callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	customers map[string]*customer.Customer
	invoices  map[string]*invoice.Invoice
	payments  map[string]*payment.Payment
	expenses  map[string]*expense.Expense

	// Last invoice sequence handed out per user
	sequences map[string]int64

	// Per-invoice reconciliation locks
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	closed bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		customers: make(map[string]*customer.Customer),
		invoices:  make(map[string]*invoice.Invoice),
		payments:  make(map[string]*payment.Payment),
		expenses:  make(map[string]*expense.Expense),
		sequences: make(map[string]int64),
		locks:     make(map[string]*sync.Mutex),
	}
}

// ──────────────────────────────────────────────────
// Customer Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookkeeper.ErrStoreClosed
	}
	if _, exists := s.customers[c.ID.String()]; exists {
		return bookkeeper.ErrAlreadyExists
	}
	cp := *c
	s.customers[c.ID.String()] = &cp
	return nil
}

func (s *Store) GetCustomer(_ context.Context, custID id.CustomerID) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[custID.String()]
	if !ok {
		return nil, bookkeeper.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCustomers(_ context.Context, userID string, opts customer.ListOpts) ([]*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*customer.Customer, 0)
	for _, c := range s.customers {
		if c.UserID == userID {
			cp := *c
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID.String()]; !exists {
		return bookkeeper.ErrCustomerNotFound
	}
	cp := *c
	s.customers[c.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, custID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[custID.String()]; !exists {
		return bookkeeper.ErrCustomerNotFound
	}
	delete(s.customers, custID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Invoice Store
// ──────────────────────────────────────────────────

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookkeeper.ErrStoreClosed
	}
	if _, exists := s.invoices[inv.ID.String()]; exists {
		return bookkeeper.ErrAlreadyExists
	}
	for _, existing := range s.invoices {
		if existing.UserID == inv.UserID && existing.Number == inv.Number {
			return bookkeeper.ErrAlreadyExists
		}
	}
	cp := *inv
	s.invoices[inv.ID.String()] = &cp
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invID.String()]
	if !ok {
		return nil, bookkeeper.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *Store) ListInvoices(_ context.Context, userID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.UserID == userID && opts.Matches(inv) {
			cp := *inv
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Date != b.Date {
			return a.Date.After(b.Date)
		}
		return a.Sequence > b.Sequence
	})

	return page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) DeleteInvoice(_ context.Context, invID id.InvoiceID) error {
	lock := s.invoiceLock(invID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invID.String()]; !exists {
		s.dropInvoiceLock(invID)
		return bookkeeper.ErrInvoiceNotFound
	}
	delete(s.invoices, invID.String())
	s.dropInvoiceLock(invID)
	for key, p := range s.payments {
		if p.InvoiceID.String() == invID.String() {
			delete(s.payments, key)
		}
	}
	return nil
}

func (s *Store) NextInvoiceNumber(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, bookkeeper.ErrStoreClosed
	}
	s.sequences[userID]++
	return s.sequences[userID], nil
}

// ──────────────────────────────────────────────────
// Payment Store
// ──────────────────────────────────────────────────

func (s *Store) GetPayment(_ context.Context, payID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[payID.String()]
	if !ok {
		return nil, bookkeeper.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListPayments(_ context.Context, invID id.InvoiceID) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.paymentsOf(invID)
	payment.Sort(result)
	return result, nil
}

// paymentsOf copies the payments of invID. Callers hold s.mu.
func (s *Store) paymentsOf(invID id.InvoiceID) []*payment.Payment {
	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.InvoiceID.String() == invID.String() {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result
}

// ──────────────────────────────────────────────────
// Expense Store
// ──────────────────────────────────────────────────

func (s *Store) CreateExpense(_ context.Context, e *expense.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return bookkeeper.ErrStoreClosed
	}
	if _, exists := s.expenses[e.ID.String()]; exists {
		return bookkeeper.ErrAlreadyExists
	}
	cp := *e
	s.expenses[e.ID.String()] = &cp
	return nil
}

func (s *Store) GetExpense(_ context.Context, expID id.ExpenseID) (*expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expID.String()]
	if !ok {
		return nil, bookkeeper.ErrExpenseNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string, opts expense.ListOpts) ([]*expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*expense.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID == userID && opts.Matches(e) {
			cp := *e
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Date != b.Date {
			return a.Date.After(b.Date)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return page(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateExpense(_ context.Context, e *expense.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[e.ID.String()]; !exists {
		return bookkeeper.ErrExpenseNotFound
	}
	cp := *e
	s.expenses[e.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, expID id.ExpenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[expID.String()]; !exists {
		return bookkeeper.ErrExpenseNotFound
	}
	delete(s.expenses, expID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Store management
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return bookkeeper.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// page applies limit and offset. A zero limit means no limit.
func page[T any](items []T, limit, offset int) []T {
	start := min(max(offset, 0), len(items))
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}
