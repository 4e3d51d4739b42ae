package bookkeeper_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
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
	"github.com/xraph/bookkeeper/report"
	"github.com/xraph/bookkeeper/store"
	"github.com/xraph/bookkeeper/store/memory"
	"github.com/xraph/bookkeeper/types"
)

const user = "user_1"

var (
	now   = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)
	today = types.DateOf(now)
)

type fixture struct {
	ctx   context.Context
	books *bookkeeper.Bookkeeper
	cust  *customer.Customer
}

func setupWith(t *testing.T, s store.Store, opts ...bookkeeper.Option) *fixture {
	t.Helper()

	opts = append([]bookkeeper.Option{
		bookkeeper.WithClock(report.FixedClock(now)),
		bookkeeper.WithLocation(time.UTC),
		bookkeeper.WithCurrency("try"),
	}, opts...)
	b := bookkeeper.New(s, opts...)

	ctx := context.Background()
	require.NoError(t, b.Start(ctx))
	t.Cleanup(func() { _ = b.Stop() })

	cust, err := b.CreateCustomer(ctx, customer.Input{UserID: user, Name: "Acme Ltd."})
	require.NoError(t, err)

	return &fixture{ctx: ctx, books: b, cust: cust}
}

func setup(t *testing.T, opts ...bookkeeper.Option) *fixture {
	t.Helper()
	return setupWith(t, memory.New(), opts...)
}

func try(s string) types.Money { return types.MustParseMoney(s, "try") }

func (f *fixture) invoice(t *testing.T, amount string, date types.Date) *invoice.Invoice {
	t.Helper()
	inv, err := f.books.CreateInvoice(f.ctx, invoice.Input{
		UserID:     user,
		CustomerID: f.cust.ID,
		Amount:     try(amount),
		Date:       date,
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) pay(invID id.InvoiceID, amount string) (*payment.Payment, error) {
	return f.books.AddPayment(f.ctx, payment.Input{
		InvoiceID:   invID,
		Amount:      try(amount),
		PaymentDate: today,
	})
}

// reconciled loads an invoice and checks its derived fields against its
// stored payments.
func (f *fixture) reconciled(t *testing.T, invID id.InvoiceID) *invoice.Invoice {
	t.Helper()

	inv, err := f.books.GetInvoice(f.ctx, invID)
	require.NoError(t, err)
	payments, err := f.books.ListPayments(f.ctx, invID)
	require.NoError(t, err)

	assert.Equal(t, payment.Total("try", payments), inv.PaidAmount, "paid amount equals sum of payments")
	assert.False(t, inv.PaidAmount.IsNegative(), "paid amount is negative")
	assert.False(t, inv.PaidAmount.GreaterThan(inv.Amount), "paid amount exceeds amount")
	assert.Equal(t, inv.PaidAmount.Amount >= inv.Amount.Amount, inv.Paid, "paid flag disagrees with amounts")
	return inv
}

// ──────────────────────────────────────────────────
// Invoice lifecycle
// ──────────────────────────────────────────────────

func TestCreateInvoiceNumbersAreSequential(t *testing.T) {
	f := setup(t)

	want := []string{"FAT000001", "FAT000002", "FAT000003"}
	var created []*invoice.Invoice
	for _, number := range want {
		inv := f.invoice(t, "100", today)
		assert.Equal(t, number, inv.Number)
		created = append(created, inv)
	}

	// Deleting the newest invoice never frees its number.
	require.NoError(t, f.books.DeleteInvoice(f.ctx, created[2].ID))
	next := f.invoice(t, "100", today)
	assert.Equal(t, "FAT000004", next.Number)

	// Sequences are per user.
	other, err := f.books.CreateCustomer(f.ctx, customer.Input{UserID: "user_2", Name: "Other"})
	require.NoError(t, err)
	inv, err := f.books.CreateInvoice(f.ctx, invoice.Input{UserID: "user_2", CustomerID: other.ID, Amount: try("5")})
	require.NoError(t, err)
	assert.Equal(t, "FAT000001", inv.Number)
}

func TestCreateInvoiceConcurrentNumbersAreUnique(t *testing.T) {
	f := setup(t)

	const n = 25
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.books.CreateInvoice(f.ctx, invoice.Input{UserID: user, CustomerID: f.cust.ID, Amount: try("1")})
			if assert.NoError(t, err) {
				numbers <- inv.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for number := range numbers {
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen[invoice.FormatNumber(n)])
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := setup(t)

	stranger, err := f.books.CreateCustomer(f.ctx, customer.Input{UserID: "user_2", Name: "Stranger"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    invoice.Input
		field string
	}{
		{"zero amount", invoice.Input{UserID: user, CustomerID: f.cust.ID, Amount: try("0")}, "amount"},
		{"negative amount", invoice.Input{UserID: user, CustomerID: f.cust.ID, Amount: try("-5")}, "amount"},
		{"missing customer", invoice.Input{UserID: user, Amount: try("5")}, "customer_id"},
		{"unknown customer", invoice.Input{UserID: user, CustomerID: id.NewCustomerID(), Amount: try("5")}, "customer_id"},
		{"another user's customer", invoice.Input{UserID: user, CustomerID: stranger.ID, Amount: try("5")}, "customer_id"},
		{"missing user", invoice.Input{CustomerID: f.cust.ID, Amount: try("5")}, "user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.books.CreateInvoice(f.ctx, tt.in)
			require.Error(t, err)
			assert.True(t, bookkeeper.IsValidation(err))

			var ve bookkeeper.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	invoices, err := f.books.ListInvoices(f.ctx, user, invoice.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestCreateInvoiceRejectsForeignCurrency(t *testing.T) {
	f := setup(t)

	_, err := f.books.CreateInvoice(f.ctx, invoice.Input{UserID: user, CustomerID: f.cust.ID, Amount: types.USD(1000)})
	assert.True(t, bookkeeper.IsValidation(err))
	assert.ErrorIs(t, err, bookkeeper.ErrCurrencyMismatch)
}

func TestCreateInvoiceManuallyPaid(t *testing.T) {
	f := setup(t)

	inv, err := f.books.CreateInvoice(f.ctx, invoice.Input{
		UserID:       user,
		CustomerID:   f.cust.ID,
		Amount:       try("1000.00"),
		Date:         today.AddDays(-3),
		ManuallyPaid: true,
	})
	require.NoError(t, err)
	assert.True(t, inv.Paid)
	assert.Equal(t, try("1000"), inv.PaidAmount)

	payments, err := f.books.ListPayments(f.ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Manual)
	assert.Equal(t, today.AddDays(-3), payments[0].PaymentDate)

	f.reconciled(t, inv.ID)
}

func TestCreateInvoiceDefaultsDateToToday(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "10", types.Date{})
	assert.Equal(t, today, inv.Date)
	assert.Equal(t, invoice.StatusUnpaid, inv.Status())
	assert.True(t, inv.PaidAmount.IsZero())
}

func TestUpdateInvoice(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "1000", today)
	_, err := f.pay(inv.ID, "300")
	require.NoError(t, err)

	desc := "Website redesign"
	amount := try("1200")
	date := today.AddDays(-1)
	updated, err := f.books.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{
		Description: &desc,
		Amount:      &amount,
		Date:        &date,
	})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
	assert.Equal(t, amount, updated.Amount)
	assert.Equal(t, date, updated.Date)
	assert.Equal(t, inv.Number, updated.Number)
	assert.Equal(t, try("300"), updated.PaidAmount)

	// Lowering the amount to exactly what was received settles the invoice.
	down := try("300")
	updated, err = f.books.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Amount: &down})
	require.NoError(t, err)
	assert.True(t, updated.Paid)

	f.reconciled(t, inv.ID)
}

func TestUpdateInvoiceAmountBelowReceivedIsRejected(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "1000", today)
	_, err := f.pay(inv.ID, "600")
	require.NoError(t, err)

	low := try("500")
	_, err = f.books.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Amount: &low})
	assert.True(t, bookkeeper.IsValidation(err))

	got := f.reconciled(t, inv.ID)
	assert.Equal(t, try("1000"), got.Amount)
}

func TestUpdateInvoiceNotFound(t *testing.T) {
	f := setup(t)
	desc := "x"
	_, err := f.books.UpdateInvoice(f.ctx, id.NewInvoiceID(), invoice.Patch{Description: &desc})
	assert.True(t, bookkeeper.IsNotFound(err))
}

func TestMarkPaidAndUnpaid(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "1000", today)
	_, err := f.pay(inv.ID, "250")
	require.NoError(t, err)

	paid, err := f.books.MarkPaid(f.ctx, inv.ID, types.Date{})
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, try("1000"), paid.PaidAmount)

	payments, err := f.books.ListPayments(f.ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, try("750"), payments[1].Amount)
	assert.True(t, payments[1].Manual)

	// Marking an already paid invoice paid again records nothing.
	_, err = f.books.MarkPaid(f.ctx, inv.ID, types.Date{})
	require.NoError(t, err)
	payments, err = f.books.ListPayments(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	unpaid, err := f.books.MarkUnpaid(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, unpaid.Paid)
	assert.True(t, unpaid.PaidAmount.IsZero())

	payments, err = f.books.ListPayments(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	f.reconciled(t, inv.ID)
}

func TestUpdateInvoicePaidToggle(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "80", today)

	yes, no := true, false
	updated, err := f.books.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Paid: &yes})
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, updated.Status())

	updated, err = f.books.UpdateInvoice(f.ctx, inv.ID, invoice.Patch{Paid: &no})
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusUnpaid, updated.Status())
}

func TestDeleteInvoiceCascadesPayments(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "1000", today)
	p, err := f.pay(inv.ID, "100")
	require.NoError(t, err)

	require.NoError(t, f.books.DeleteInvoice(f.ctx, inv.ID))

	_, err = f.books.GetInvoice(f.ctx, inv.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrInvoiceNotFound)
	_, err = f.books.GetPayment(f.ctx, p.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrPaymentNotFound)

	err = f.books.DeleteInvoice(f.ctx, inv.ID)
	assert.True(t, bookkeeper.IsNotFound(err))
}

// ──────────────────────────────────────────────────
// Payment reconciliation
// ──────────────────────────────────────────────────

func TestAddPaymentsSettleInvoice(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "1000.00", today)

	_, err := f.pay(inv.ID, "400.00")
	require.NoError(t, err)
	got := f.reconciled(t, inv.ID)
	assert.Equal(t, invoice.StatusPartial, got.Status())

	_, err = f.pay(inv.ID, "600.00")
	require.NoError(t, err)

	got = f.reconciled(t, inv.ID)
	assert.Equal(t, try("1000.00"), got.PaidAmount)
	assert.True(t, got.Paid)
	assert.True(t, got.Remaining().IsZero())
}

func TestAddPaymentOverRemainingIsRejected(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "1000.00", today)

	_, err := f.pay(inv.ID, "300.00")
	require.NoError(t, err)

	_, err = f.pay(inv.ID, "800.00")
	require.Error(t, err)
	assert.True(t, bookkeeper.IsValidation(err))

	got := f.reconciled(t, inv.ID)
	assert.Equal(t, try("300.00"), got.PaidAmount)
	assert.False(t, got.Paid)

	payments, err := f.books.ListPayments(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	// Exactly the remaining balance is accepted.
	_, err = f.pay(inv.ID, "700.00")
	require.NoError(t, err)
	assert.True(t, f.reconciled(t, inv.ID).Paid)
}

func TestAddPaymentValidation(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "100", today)

	for _, amount := range []string{"0", "-1"} {
		_, err := f.pay(inv.ID, amount)
		assert.True(t, bookkeeper.IsValidation(err), "amount %s", amount)
	}

	_, err := f.books.AddPayment(f.ctx, payment.Input{InvoiceID: inv.ID, Amount: types.EUR(10)})
	assert.ErrorIs(t, err, bookkeeper.ErrCurrencyMismatch)

	_, err = f.pay(id.NewInvoiceID(), "10")
	assert.ErrorIs(t, err, bookkeeper.ErrInvoiceNotFound)

	got := f.reconciled(t, inv.ID)
	assert.True(t, got.PaidAmount.IsZero())
}

func TestDeleteAndReAddPaymentRestoresPaidAmount(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "1000", today)

	_, err := f.pay(inv.ID, "200")
	require.NoError(t, err)
	p, err := f.pay(inv.ID, "350")
	require.NoError(t, err)
	before := f.reconciled(t, inv.ID).PaidAmount

	require.NoError(t, f.books.DeletePayment(f.ctx, p.ID))
	assert.Equal(t, try("200"), f.reconciled(t, inv.ID).PaidAmount)

	_, err = f.pay(inv.ID, "350")
	require.NoError(t, err)
	assert.Equal(t, before, f.reconciled(t, inv.ID).PaidAmount)

	err = f.books.DeletePayment(f.ctx, p.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrPaymentNotFound)
}

func TestDeleteLastPaymentReopensInvoice(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "50", today)
	p, err := f.pay(inv.ID, "50")
	require.NoError(t, err)
	require.True(t, f.reconciled(t, inv.ID).Paid)

	require.NoError(t, f.books.DeletePayment(f.ctx, p.ID))
	got := f.reconciled(t, inv.ID)
	assert.False(t, got.Paid)
	assert.True(t, got.PaidAmount.IsZero())
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	f := setup(t)
	inv := f.invoice(t, "1000", today)

	const workers = 30
	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.pay(inv.ID, "100"); err == nil {
				accepted.Add(1)
			} else {
				assert.True(t, bookkeeper.IsValidation(err), "unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), accepted.Load())
	got := f.reconciled(t, inv.ID)
	assert.Equal(t, try("1000"), got.PaidAmount)
	assert.True(t, got.Paid)
}

// conflictStore fails the first n reconciliations with ErrConflict, the way
// an optimistic backend does when another writer bumped the version.
type conflictStore struct {
	*memory.Store
	remaining atomic.Int32
	calls     atomic.Int32
}

func (s *conflictStore) Reconcile(ctx context.Context, invID id.InvoiceID, fn func(tx invoice.Tx) error) error {
	s.calls.Add(1)
	if s.remaining.Add(-1) >= 0 {
		return fmt.Errorf("version changed: %w", bookkeeper.ErrConflict)
	}
	return s.Store.Reconcile(ctx, invID, fn)
}

func TestReconcileRetriesConflicts(t *testing.T) {
	s := &conflictStore{Store: memory.New()}
	f := setupWith(t, s, bookkeeper.WithMaxRetries(3))
	inv := f.invoice(t, "100", today)

	s.remaining.Store(2)
	s.calls.Store(0)
	_, err := f.pay(inv.ID, "40")
	require.NoError(t, err)
	assert.Equal(t, int32(3), s.calls.Load())

	s.remaining.Store(10)
	s.calls.Store(0)
	_, err = f.pay(inv.ID, "10")
	require.Error(t, err)
	assert.True(t, bookkeeper.IsConflict(err))
	assert.ErrorIs(t, err, bookkeeper.ErrConflict)
	assert.Equal(t, int32(4), s.calls.Load())

	s.remaining.Store(0)
	assert.Equal(t, try("40"), f.reconciled(t, inv.ID).PaidAmount)
}

// ──────────────────────────────────────────────────
// Customers and expenses
// ──────────────────────────────────────────────────

func TestCustomerLifecycle(t *testing.T) {
	f := setup(t)

	_, err := f.books.CreateCustomer(f.ctx, customer.Input{UserID: user, Name: "   "})
	assert.True(t, bookkeeper.IsValidation(err))

	b, err := f.books.CreateCustomer(f.ctx, customer.Input{UserID: user, Name: " Beta ", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Beta", b.Name)

	list, err := f.books.ListCustomers(f.ctx, user, customer.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme Ltd.", list[0].Name)

	phone := "+90 555 000 00 00"
	updated, err := f.books.UpdateCustomer(f.ctx, b.ID, customer.Patch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)

	require.NoError(t, f.books.DeleteCustomer(f.ctx, b.ID))
	_, err = f.books.GetCustomer(f.ctx, b.ID)
	assert.True(t, bookkeeper.IsNotFound(err))
}

func TestDeleteCustomerWithInvoicesIsRefused(t *testing.T) {
	f := setup(t)
	f.invoice(t, "10", today)

	err := f.books.DeleteCustomer(f.ctx, f.cust.ID)
	require.Error(t, err)
	assert.True(t, bookkeeper.IsConflict(err))
	assert.ErrorIs(t, err, bookkeeper.ErrCustomerInUse)

	_, err = f.books.GetCustomer(f.ctx, f.cust.ID)
	assert.NoError(t, err)
}

func TestExpenseLifecycle(t *testing.T) {
	f := setup(t)

	_, err := f.books.CreateExpense(f.ctx, expense.Input{UserID: user, Label: "Kira", Amount: try("0")})
	assert.True(t, bookkeeper.IsValidation(err))

	e, err := f.books.CreateExpense(f.ctx, expense.Input{UserID: user, Label: " Kira ", Amount: try("500")})
	require.NoError(t, err)
	assert.Equal(t, "Kira", e.Label)
	assert.Equal(t, today, e.Date)

	amount := try("550")
	updated, err := f.books.UpdateExpense(f.ctx, e.ID, expense.Patch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, amount, updated.Amount)

	list, err := f.books.ListExpenses(f.ctx, user, expense.ListOpts{Label: "Kira"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.books.DeleteExpense(f.ctx, e.ID))
	err = f.books.DeleteExpense(f.ctx, e.ID)
	assert.ErrorIs(t, err, bookkeeper.ErrExpenseNotFound)
}

// ──────────────────────────────────────────────────
// Reports
// ──────────────────────────────────────────────────

func TestDashboardStatsBilledBasis(t *testing.T) {
	f := setup(t)

	a := f.invoice(t, "3000", today.AddDays(-2))
	f.invoice(t, "2000", today.AddDays(-1))
	_, err := f.pay(a.ID, "3000")
	require.NoError(t, err)

	// An older invoice outside the month still counts as pending.
	f.invoice(t, "700", types.NewDate(2023, time.November, 3))

	_, err = f.books.CreateExpense(f.ctx, expense.Input{UserID: user, Label: "Kira", Amount: try("1200"), Date: today})
	require.NoError(t, err)

	stats, err := f.books.DashboardStats(f.ctx, user, 3, 2024)
	require.NoError(t, err)

	assert.Equal(t, try("5000"), stats.Monthly.InvoiceTotal)
	assert.Equal(t, try("3000"), stats.Monthly.PaymentsReceived)
	assert.Equal(t, try("1200"), stats.Monthly.ExpenseTotal)
	assert.Equal(t, try("3800"), stats.Monthly.ProfitLoss)
	assert.Equal(t, try("2700"), stats.PendingAmount)
	assert.Equal(t, 1, stats.CustomerCount)

	_, err = f.books.DashboardStats(f.ctx, user, 13, 2024)
	assert.True(t, bookkeeper.IsValidation(err))
}

func TestReportsAfterCurrencyChange(t *testing.T) {
	s := memory.New()
	f := setupWith(t, s)

	inv := f.invoice(t, "1000", today)
	_, err := f.pay(inv.ID, "400")
	require.NoError(t, err)
	_, err = f.books.CreateExpense(f.ctx, expense.Input{UserID: user, Label: "Kira", Amount: try("250"), Date: today})
	require.NoError(t, err)

	usd := bookkeeper.New(s,
		bookkeeper.WithClock(report.FixedClock(now)),
		bookkeeper.WithLocation(time.UTC),
		bookkeeper.WithCurrency("usd"),
	)
	require.NoError(t, usd.Start(f.ctx))

	stats, err := usd.DashboardStats(f.ctx, user, 3, 2024)
	require.NoError(t, err)
	assert.Equal(t, types.Zero("usd"), stats.Monthly.InvoiceTotal)
	assert.Equal(t, types.Zero("usd"), stats.PendingAmount)
	assert.Equal(t, 2, stats.Monthly.Skipped)
	assert.Equal(t, 1, stats.Skipped)

	aging, err := usd.AgingReport(f.ctx, user)
	require.NoError(t, err)
	assert.Zero(t, aging.Count)
	assert.Equal(t, 1, aging.Skipped)

	expenses, err := usd.ExpenseReport(f.ctx, user, report.Monthly)
	require.NoError(t, err)
	assert.Empty(t, expenses.Categories)
	assert.Equal(t, 1, expenses.Skipped)

	top, err := usd.TopCustomers(f.ctx, user, report.Monthly, 0)
	require.NoError(t, err)
	assert.Empty(t, top.Customers)
	assert.Equal(t, 1, top.Skipped)
}

func TestExpenseReportGroupsByLabel(t *testing.T) {
	f := setup(t)

	for _, in := range []expense.Input{
		{UserID: user, Label: "Kira", Amount: try("500"), Date: today},
		{UserID: user, Label: "Kira", Amount: try("750"), Date: today.AddDays(-5)},
		{UserID: user, Label: "Yemek", Amount: try("90"), Date: today},
		{UserID: user, Label: "Kira", Amount: try("750"), Date: types.NewDate(2024, time.January, 2)},
	} {
		_, err := f.books.CreateExpense(f.ctx, in)
		require.NoError(t, err)
	}

	rep, err := f.books.ExpenseReport(f.ctx, user, report.Monthly)
	require.NoError(t, err)
	require.Len(t, rep.Categories, 2)
	assert.Equal(t, "Kira", rep.Categories[0].Label)
	assert.Equal(t, try("1250"), rep.Categories[0].Total)
	assert.Equal(t, 2, rep.Categories[0].Count)

	_, err = f.books.ExpenseReport(f.ctx, user, report.Period("weekly"))
	assert.True(t, bookkeeper.IsValidation(err))
}

func TestAgingReportBoundary(t *testing.T) {
	f := setup(t)

	f.invoice(t, "100", today.AddDays(-10))
	f.invoice(t, "100", today.AddDays(-9))
	paid := f.invoice(t, "100", today.AddDays(-45))
	_, err := f.books.MarkPaid(f.ctx, paid.ID, types.Date{})
	require.NoError(t, err)

	rep, err := f.books.AgingReport(f.ctx, user)
	require.NoError(t, err)
	require.Len(t, rep.Buckets[0].Rows, 1)
	require.Len(t, rep.Buckets[1].Rows, 1)
	assert.Equal(t, 10, rep.Buckets[1].Rows[0].DaysOutstanding)
	assert.Empty(t, rep.Buckets[3].Rows)
	assert.Equal(t, try("200"), rep.Total)
}

func TestTopCustomersDefaultN(t *testing.T) {
	f := setup(t, bookkeeper.WithTopCustomers(2))

	for i, name := range []string{"B", "C", "D"} {
		c, err := f.books.CreateCustomer(f.ctx, customer.Input{UserID: user, Name: name})
		require.NoError(t, err)
		_, err = f.books.CreateInvoice(f.ctx, invoice.Input{
			UserID:     user,
			CustomerID: c.ID,
			Amount:     types.TRY(int64(1000 * (i + 1))),
			Date:       today,
		})
		require.NoError(t, err)
	}

	rep, err := f.books.TopCustomers(f.ctx, user, report.Yearly, 0)
	require.NoError(t, err)
	require.Len(t, rep.Customers, 2)
	assert.Equal(t, "D", rep.Customers[0].Name)
	assert.Equal(t, "C", rep.Customers[1].Name)
}

// ──────────────────────────────────────────────────
// Plugins
// ──────────────────────────────────────────────────

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) OnInvoiceCreated(_ context.Context, inv *invoice.Invoice) error {
	r.add("created " + inv.Number)
	return nil
}

func (r *recorder) OnInvoicePaid(_ context.Context, inv *invoice.Invoice) error {
	r.add("paid " + inv.Number)
	return nil
}

func (r *recorder) OnPaymentRecorded(_ context.Context, p *payment.Payment, _ *invoice.Invoice) error {
	r.add("payment " + p.Amount.FormatMajor())
	return errors.New("plugin failures are only logged")
}

func (r *recorder) OnPaymentRejected(_ context.Context, in payment.Input, _ error) error {
	r.add("rejected " + in.Amount.FormatMajor())
	return nil
}

func TestPluginHooks(t *testing.T) {
	rec := &recorder{}
	f := setup(t, bookkeeper.WithPlugin(rec))

	inv := f.invoice(t, "100", today)
	_, err := f.pay(inv.ID, "60")
	require.NoError(t, err)
	_, err = f.pay(inv.ID, "50")
	require.Error(t, err)
	_, err = f.pay(inv.ID, "40")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"created FAT000001",
		"payment 60.00",
		"rejected 50.00",
		"payment 40.00",
		"paid FAT000001",
	}, rec.events)
}
