// Package storetest is a conformance suite for store.Store backends. Each
// backend's tests call Run with a factory returning an empty, migrated store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/store"
	"github.com/xraph/bookkeeper/types"
)

// Factory returns a fresh store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run executes every conformance test against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Customers", testCustomers},
		{"InvoiceListing", testInvoiceListing},
		{"InvoiceNumbers", testInvoiceNumbers},
		{"ConcurrentInvoiceNumbers", testConcurrentInvoiceNumbers},
		{"ReconcileCommits", testReconcileCommits},
		{"ConcurrentReconcile", testConcurrentReconcile},
		{"ReconcileRollsBack", testReconcileRollsBack},
		{"ReconcileMissingInvoice", testReconcileMissingInvoice},
		{"DeleteInvoiceCascades", testDeleteInvoiceCascades},
		{"Expenses", testExpenses},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func day(s string) types.Date { return types.MustParseDate(s) }

func try(s string) types.Money { return types.MustParseMoney(s, "try") }

func newCustomer(user, name string) *customer.Customer {
	return &customer.Customer{
		Entity: types.NewEntity(),
		ID:     id.NewCustomerID(),
		UserID: user,
		Name:   name,
	}
}

func newInvoice(user string, custID id.CustomerID, seq int64, amount string, date types.Date) *invoice.Invoice {
	return &invoice.Invoice{
		Entity:     types.NewEntity(),
		ID:         id.NewInvoiceID(),
		Number:     invoice.FormatNumber(seq),
		Sequence:   seq,
		UserID:     user,
		CustomerID: custID,
		Amount:     try(amount),
		PaidAmount: types.Zero("try"),
		Date:       date,
	}
}

func newPayment(invID id.InvoiceID, amount string, date types.Date) *payment.Payment {
	return &payment.Payment{
		ID:          id.NewPaymentID(),
		InvoiceID:   invID,
		Amount:      try(amount),
		PaymentDate: date,
		CreatedAt:   time.Now().UTC(),
	}
}

func numbers(invs []*invoice.Invoice) []string {
	out := make([]string, len(invs))
	for i, inv := range invs {
		out[i] = inv.Number
	}
	return out
}

// settle records the total of tx's payments on the invoice.
func settle(ctx context.Context, tx invoice.Tx) error {
	payments, err := tx.Payments(ctx)
	if err != nil {
		return err
	}
	inv := tx.Invoice()
	inv.ApplyPayments(payment.Total(inv.Amount.Currency, payments))
	return tx.SaveInvoice(ctx, inv)
}

func testCustomers(t *testing.T, s store.Store) {
	ctx := context.Background()

	zed := newCustomer("u1", "Zed")
	acme := newCustomer("u1", "Acme")
	other := newCustomer("u2", "Other")
	for _, c := range []*customer.Customer{zed, acme, other} {
		require.NoError(t, s.CreateCustomer(ctx, c))
	}

	got, err := s.GetCustomer(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, acme.ID.String(), got.ID.String())

	list, err := s.ListCustomers(ctx, "u1", customer.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme", list[0].Name)
	assert.Equal(t, "Zed", list[1].Name)

	list, err = s.ListCustomers(ctx, "u1", customer.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Zed", list[0].Name)

	acme.Email = "billing@acme.test"
	require.NoError(t, s.UpdateCustomer(ctx, acme))
	got, err = s.GetCustomer(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing@acme.test", got.Email)

	require.NoError(t, s.DeleteCustomer(ctx, zed.ID))
	_, err = s.GetCustomer(ctx, zed.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrCustomerNotFound)
	assert.ErrorIs(t, s.DeleteCustomer(ctx, zed.ID), bookkeeper.ErrCustomerNotFound)
	assert.ErrorIs(t, s.UpdateCustomer(ctx, zed), bookkeeper.ErrCustomerNotFound)
}

func testInvoiceListing(t *testing.T, s store.Store) {
	ctx := context.Background()

	acme := newCustomer("u1", "Acme")
	beta := newCustomer("u1", "Beta")
	require.NoError(t, s.CreateCustomer(ctx, acme))
	require.NoError(t, s.CreateCustomer(ctx, beta))

	first := newInvoice("u1", acme.ID, 1, "100", day("2024-01-10"))
	second := newInvoice("u1", beta.ID, 2, "200", day("2024-02-01"))
	third := newInvoice("u1", acme.ID, 3, "300", day("2024-02-01"))
	third.PaidAmount = try("300")
	third.Paid = true
	fourth := newInvoice("u1", acme.ID, 4, "400", day("2024-03-05"))
	fourth.PaidAmount = try("50")
	foreign := newInvoice("u2", acme.ID, 1, "999", day("2024-02-01"))
	for _, inv := range []*invoice.Invoice{first, second, third, fourth, foreign} {
		require.NoError(t, s.CreateInvoice(ctx, inv))
	}

	got, err := s.GetInvoice(ctx, third.ID)
	require.NoError(t, err)
	assert.Equal(t, "FAT000003", got.Number)
	assert.Equal(t, try("300"), got.Amount)
	assert.True(t, got.Paid)
	assert.Equal(t, day("2024-02-01"), got.Date)

	_, err = s.GetInvoice(ctx, id.NewInvoiceID())
	assert.ErrorIs(t, err, bookkeeper.ErrInvoiceNotFound)

	all, err := s.ListInvoices(ctx, "u1", invoice.ListOpts{})
	require.NoError(t, err)
	assert.Equal(t, []string{"FAT000004", "FAT000003", "FAT000002", "FAT000001"}, numbers(all))

	tests := []struct {
		name string
		opts invoice.ListOpts
		want []string
	}{
		{"customer", invoice.ListOpts{CustomerID: beta.ID}, []string{"FAT000002"}},
		{"paid", invoice.ListOpts{Status: invoice.StatusPaid}, []string{"FAT000003"}},
		{"partial", invoice.ListOpts{Status: invoice.StatusPartial}, []string{"FAT000004"}},
		{"unpaid", invoice.ListOpts{Status: invoice.StatusUnpaid}, []string{"FAT000002", "FAT000001"}},
		{"inclusive range", invoice.ListOpts{From: day("2024-01-10"), To: day("2024-02-01")}, []string{"FAT000003", "FAT000002", "FAT000001"}},
		{"page", invoice.ListOpts{Limit: 2, Offset: 1}, []string{"FAT000003", "FAT000002"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListInvoices(ctx, "u1", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, numbers(got))
		})
	}
}

func testInvoiceNumbers(t *testing.T, s store.Store) {
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.NextInvoiceNumber(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := s.NextInvoiceNumber(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func testConcurrentInvoiceNumbers(t *testing.T, s store.Store) {
	ctx := context.Background()

	const n = 20
	results := make(chan int64, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.NextInvoiceNumber(ctx, "u1")
			if err != nil {
				errs <- err
				return
			}
			results <- v
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := make(map[int64]bool, n)
	for v := range results {
		assert.False(t, seen[v], "value %d handed out twice", v)
		seen[v] = true
	}
	for v := int64(1); v <= n; v++ {
		assert.True(t, seen[v], "value %d missing", v)
	}
}

func testReconcileCommits(t *testing.T, s store.Store) {
	ctx := context.Background()

	acme := newCustomer("u1", "Acme")
	require.NoError(t, s.CreateCustomer(ctx, acme))
	inv := newInvoice("u1", acme.ID, 1, "1000", day("2024-03-01"))
	require.NoError(t, s.CreateInvoice(ctx, inv))

	first := newPayment(inv.ID, "400", day("2024-03-02"))
	err := s.Reconcile(ctx, inv.ID, func(tx invoice.Tx) error {
		if err := tx.InsertPayment(ctx, first); err != nil {
			return err
		}
		return settle(ctx, tx)
	})
	require.NoError(t, err)

	got, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, try("400"), got.PaidAmount)
	assert.False(t, got.Paid)
	assert.Equal(t, inv.Version+1, got.Version)

	stored, err := s.GetPayment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, try("400"), stored.Amount)
	assert.Equal(t, day("2024-03-02"), stored.PaymentDate)

	second := newPayment(inv.ID, "600", day("2024-03-01"))
	err = s.Reconcile(ctx, inv.ID, func(tx invoice.Tx) error {
		if err := tx.InsertPayment(ctx, second); err != nil {
			return err
		}
		payments, err := tx.Payments(ctx)
		if err != nil {
			return err
		}
		if len(payments) != 2 {
			return fmt.Errorf("payments inside tx = %d, want 2", len(payments))
		}
		return settle(ctx, tx)
	})
	require.NoError(t, err)

	payments, err := s.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, second.ID.String(), payments[0].ID.String(), "payments are ordered by date")

	got, err = s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, try("1000"), got.PaidAmount)
	assert.True(t, got.Paid)

	err = s.Reconcile(ctx, inv.ID, func(tx invoice.Tx) error {
		if err := tx.DeletePayment(ctx, id.NewPaymentID()); !errors.Is(err, bookkeeper.ErrPaymentNotFound) {
			return fmt.Errorf("delete unknown payment: %v", err)
		}
		if err := tx.DeletePayment(ctx, first.ID); err != nil {
			return err
		}
		return settle(ctx, tx)
	})
	require.NoError(t, err)

	got, err = s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, try("600"), got.PaidAmount)
	assert.False(t, got.Paid)
	_, err = s.GetPayment(ctx, first.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrPaymentNotFound)

	err = s.Reconcile(ctx, inv.ID, func(tx invoice.Tx) error {
		if err := tx.DeleteAllPayments(ctx); err != nil {
			return err
		}
		return settle(ctx, tx)
	})
	require.NoError(t, err)

	payments, err = s.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	got, err = s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
}

var errOverpaid = errors.New("payment exceeds remaining balance")

// testConcurrentReconcile races writers that each accept a payment only when
// the balance they read inside Reconcile covers it.
func testConcurrentReconcile(t *testing.T, s store.Store) {
	ctx := context.Background()

	acme := newCustomer("u1", "Acme")
	require.NoError(t, s.CreateCustomer(ctx, acme))
	inv := newInvoice("u1", acme.ID, 1, "1000", day("2024-03-01"))
	require.NoError(t, s.CreateInvoice(ctx, inv))

	const writers = 10
	pay := func() error {
		p := newPayment(inv.ID, "300", day("2024-03-02"))
		return s.Reconcile(ctx, inv.ID, func(tx invoice.Tx) error {
			payments, err := tx.Payments(ctx)
			if err != nil {
				return err
			}
			cur := tx.Invoice()
			remaining := cur.Amount.Subtract(payment.Total(cur.Amount.Currency, payments))
			if remaining.LessThan(p.Amount) {
				return errOverpaid
			}
			if err := tx.InsertPayment(ctx, p); err != nil {
				return err
			}
			return settle(ctx, tx)
		})
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		failures []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			for attempt := 0; attempt < 50; attempt++ {
				if err = pay(); !errors.Is(err, bookkeeper.ErrConflict) {
					break
				}
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case !errors.Is(err, errOverpaid):
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, failures)
	assert.Equal(t, 3, accepted)

	payments, err := s.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, accepted)
	total := payment.Total("try", payments)
	assert.Equal(t, try("900"), total)

	got, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, total, got.PaidAmount)
	assert.False(t, got.PaidAmount.GreaterThan(got.Amount))
	assert.False(t, got.Paid)
}

func testReconcileRollsBack(t *testing.T, s store.Store) {
	ctx := context.Background()

	acme := newCustomer("u1", "Acme")
	require.NoError(t, s.CreateCustomer(ctx, acme))
	inv := newInvoice("u1", acme.ID, 1, "1000", day("2024-03-01"))
	require.NoError(t, s.CreateInvoice(ctx, inv))

	boom := errors.New("boom")
	p := newPayment(inv.ID, "300", day("2024-03-02"))
	err := s.Reconcile(ctx, inv.ID, func(tx invoice.Tx) error {
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}
		if err := settle(ctx, tx); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err, "fn errors are returned unwrapped")

	payments, err := s.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	got, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
	assert.Equal(t, inv.Version, got.Version)
}

func testReconcileMissingInvoice(t *testing.T, s store.Store) {
	called := false
	err := s.Reconcile(context.Background(), id.NewInvoiceID(), func(invoice.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, bookkeeper.ErrInvoiceNotFound)
	assert.False(t, called)
}

func testDeleteInvoiceCascades(t *testing.T, s store.Store) {
	ctx := context.Background()

	acme := newCustomer("u1", "Acme")
	require.NoError(t, s.CreateCustomer(ctx, acme))
	inv := newInvoice("u1", acme.ID, 1, "1000", day("2024-03-01"))
	require.NoError(t, s.CreateInvoice(ctx, inv))

	p := newPayment(inv.ID, "250", day("2024-03-02"))
	require.NoError(t, s.Reconcile(ctx, inv.ID, func(tx invoice.Tx) error {
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}
		return settle(ctx, tx)
	}))

	require.NoError(t, s.DeleteInvoice(ctx, inv.ID))

	_, err := s.GetInvoice(ctx, inv.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrInvoiceNotFound)
	_, err = s.GetPayment(ctx, p.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrPaymentNotFound)
	assert.ErrorIs(t, s.DeleteInvoice(ctx, inv.ID), bookkeeper.ErrInvoiceNotFound)
}

func testExpenses(t *testing.T, s store.Store) {
	ctx := context.Background()

	mk := func(label, amount, date string) *expense.Expense {
		e := &expense.Expense{
			Entity: types.NewEntity(),
			ID:     id.NewExpenseID(),
			UserID: "u1",
			Label:  label,
			Amount: try(amount),
			Date:   day(date),
		}
		require.NoError(t, s.CreateExpense(ctx, e))
		return e
	}
	rent := mk("Kira", "500", "2024-01-05")
	fuel := mk("Yakit", "120", "2024-02-10")
	rent2 := mk("Kira", "750", "2024-03-05")

	list, err := s.ListExpenses(ctx, "u1", expense.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, rent2.ID.String(), list[0].ID.String())
	assert.Equal(t, fuel.ID.String(), list[1].ID.String())
	assert.Equal(t, rent.ID.String(), list[2].ID.String())

	list, err = s.ListExpenses(ctx, "u1", expense.ListOpts{Label: "Kira"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.ListExpenses(ctx, "u1", expense.ListOpts{From: day("2024-02-10"), To: day("2024-03-05")})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	fuel.Amount = try("130")
	require.NoError(t, s.UpdateExpense(ctx, fuel))
	got, err := s.GetExpense(ctx, fuel.ID)
	require.NoError(t, err)
	assert.Equal(t, try("130"), got.Amount)

	require.NoError(t, s.DeleteExpense(ctx, fuel.ID))
	_, err = s.GetExpense(ctx, fuel.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrExpenseNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, fuel.ID), bookkeeper.ErrExpenseNotFound)
}
