package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/types"
)

var now = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newReporter() *Reporter {
	return New("try", WithClock(FixedClock(now)), WithLocation(time.UTC))
}

func inv(custID id.CustomerID, number string, amount, paid int64, date types.Date) *invoice.Invoice {
	i := &invoice.Invoice{
		ID:         id.NewInvoiceID(),
		Number:     number,
		CustomerID: custID,
		Amount:     types.TRY(amount),
		Date:       date,
	}
	i.ApplyPayments(types.TRY(paid))
	return i
}

func exp(label string, amount int64, date types.Date) *expense.Expense {
	return &expense.Expense{ID: id.NewExpenseID(), Label: label, Amount: types.TRY(amount), Date: date}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, Monthly, p)

	p, err = ParsePeriod("YEARLY")
	require.NoError(t, err)
	assert.Equal(t, Yearly, p)

	_, err = ParsePeriod("weekly")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(types.TRY(5), types.TRY(0)))
	assert.Equal(t, 25.0, Percent(types.TRY(250), types.TRY(1000)))
	assert.Equal(t, 33.33, Percent(types.TRY(1), types.TRY(3)))
}

func TestDashboard(t *testing.T) {
	r := newReporter()
	cust := id.NewCustomerID()
	march := types.NewDate(2024, time.March, 3)

	invoices := []*invoice.Invoice{
		inv(cust, "FAT000001", 200000, 200000, march),
		inv(cust, "FAT000002", 300000, 100000, march.AddDays(5)),
		// Outside the month but inside the year.
		inv(cust, "FAT000003", 100000, 0, types.NewDate(2024, time.January, 10)),
		// Previous year still counts toward pending.
		inv(cust, "FAT000004", 50000, 0, types.NewDate(2023, time.December, 30)),
	}
	expenses := []*expense.Expense{
		exp("Kira", 100000, march),
		exp("Fatura", 20000, march.AddDays(1)),
		exp("Kira", 100000, types.NewDate(2024, time.February, 1)),
	}

	d, err := r.Dashboard(invoices, expenses, 7, 3, 2024)
	require.NoError(t, err)

	assert.Equal(t, types.TRY(500000), d.Monthly.InvoiceTotal)
	assert.Equal(t, types.TRY(300000), d.Monthly.PaymentsReceived)
	assert.Equal(t, types.TRY(120000), d.Monthly.ExpenseTotal)
	assert.Equal(t, types.TRY(380000), d.Monthly.ProfitLoss)
	assert.Equal(t, 2, d.Monthly.InvoiceCount)
	assert.Equal(t, 1, d.Monthly.PaidCount)
	assert.Equal(t, 1, d.Monthly.PartialCount)
	assert.Equal(t, 0, d.Monthly.UnpaidCount)

	assert.Equal(t, types.TRY(600000), d.Yearly.InvoiceTotal)
	assert.Equal(t, types.TRY(220000), d.Yearly.ExpenseTotal)
	assert.Equal(t, types.TRY(380000), d.Yearly.ProfitLoss)
	assert.Equal(t, 1, d.Yearly.UnpaidCount)

	// 2000 + 1000 + 500 outstanding across all dates.
	assert.Equal(t, types.TRY(350000), d.PendingAmount)
	assert.Equal(t, 7, d.CustomerCount)
}

func TestDashboardEmpty(t *testing.T) {
	d, err := newReporter().Dashboard(nil, nil, 0, 12, 2024)
	require.NoError(t, err)
	assert.True(t, d.Monthly.InvoiceTotal.IsZero())
	assert.True(t, d.Yearly.ProfitLoss.IsZero())
	assert.True(t, d.PendingAmount.IsZero())
}

func TestDashboardInvalidMonth(t *testing.T) {
	r := newReporter()
	for _, month := range []int{0, 13, -1} {
		_, err := r.Dashboard(nil, nil, 0, month, 2024)
		assert.ErrorIs(t, err, ErrInvalidMonth, "month %d", month)
	}
	_, err := r.Dashboard(nil, nil, 0, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidYear)
}

func TestYearSeries(t *testing.T) {
	r := newReporter()
	cust := id.NewCustomerID()
	invoices := []*invoice.Invoice{
		inv(cust, "FAT000001", 1000, 500, types.NewDate(2024, time.January, 2)),
		inv(cust, "FAT000002", 2000, 0, types.NewDate(2024, time.March, 2)),
	}
	expenses := []*expense.Expense{exp("Kira", 300, types.NewDate(2024, time.March, 9))}

	series, err := r.YearSeries(invoices, expenses, 2024)
	require.NoError(t, err)
	require.Len(t, series, 12)
	assert.Equal(t, types.TRY(1000), series[0].InvoiceTotal)
	assert.Equal(t, types.TRY(500), series[0].PaymentsReceived)
	assert.Equal(t, types.TRY(1700), series[2].ProfitLoss)
	assert.True(t, series[5].InvoiceTotal.IsZero())
}

func TestExpensesByCategory(t *testing.T) {
	r := newReporter()
	march := types.NewDate(2024, time.March, 1)

	expenses := []*expense.Expense{
		exp("Kira", 50000, march),
		exp("Kira", 75000, march.AddDays(10)),
		exp("Yemek", 20000, march.AddDays(2)),
		exp("  ", 5000, march.AddDays(3)),
		exp("Kira", 99999, types.NewDate(2024, time.January, 5)),
	}

	rep := r.ExpensesByCategory(expenses, Monthly)
	require.Len(t, rep.Categories, 3)

	assert.Equal(t, "Kira", rep.Categories[0].Label)
	assert.Equal(t, types.TRY(125000), rep.Categories[0].Total)
	assert.Equal(t, 2, rep.Categories[0].Count)
	assert.Equal(t, "Yemek", rep.Categories[1].Label)
	assert.Equal(t, UncategorizedLabel, rep.Categories[2].Label)

	assert.Equal(t, types.TRY(150000), rep.Total)
	assert.Equal(t, 4, rep.Count)
	assert.InDelta(t, 83.33, rep.Categories[0].Share, 0.001)
	assert.Equal(t, types.NewDate(2024, time.March, 1), rep.From)
	assert.Equal(t, types.NewDate(2024, time.March, 31), rep.To)

	yearly := r.ExpensesByCategory(expenses, Yearly)
	assert.Equal(t, types.TRY(224999), yearly.Categories[0].Total)
	assert.Equal(t, 3, yearly.Categories[0].Count)
}

func TestExpensesByCategoryEmpty(t *testing.T) {
	rep := newReporter().ExpensesByCategory(nil, Yearly)
	assert.Empty(t, rep.Categories)
	assert.True(t, rep.Total.IsZero())
}

func TestAging(t *testing.T) {
	r := newReporter()
	today := types.DateOf(now)
	cust := id.NewCustomerID()

	invoices := []*invoice.Invoice{
		inv(cust, "FAT000001", 1000, 0, today.AddDays(-9)),
		inv(cust, "FAT000002", 1000, 400, today.AddDays(-10)),
		inv(cust, "FAT000003", 1000, 0, today.AddDays(-29)),
		inv(cust, "FAT000004", 1000, 0, today.AddDays(-30)),
		inv(cust, "FAT000005", 1000, 1000, today.AddDays(-60)),
		inv(cust, "FAT000006", 1000, 0, today.AddDays(4)),
	}

	rep := r.Aging(invoices)
	require.Len(t, rep.Buckets, 4)

	first := rep.Buckets[0]
	require.Len(t, first.Rows, 2)
	assert.Equal(t, "FAT000001", first.Rows[0].Invoice.Number)
	assert.Equal(t, 9, first.Rows[0].DaysOutstanding)
	assert.Equal(t, 0, first.Rows[1].DaysOutstanding)

	second := rep.Buckets[1]
	require.Len(t, second.Rows, 1)
	assert.Equal(t, "FAT000002", second.Rows[0].Invoice.Number)
	assert.Equal(t, 10, second.Rows[0].DaysOutstanding)
	assert.Equal(t, types.TRY(600), second.Total)

	assert.Len(t, rep.Buckets[2].Rows, 1)
	require.Len(t, rep.Buckets[3].Rows, 1)
	assert.Equal(t, 30, rep.Buckets[3].Rows[0].DaysOutstanding)
	assert.Equal(t, 0, rep.Buckets[3].MaxDays)

	assert.Equal(t, 5, rep.Count)
	assert.Equal(t, types.TRY(4600), rep.Total)
}

func TestTopCustomers(t *testing.T) {
	r := newReporter()
	march := types.NewDate(2024, time.March, 2)

	var customers []*customer.Customer
	var invoices []*invoice.Invoice
	for i, name := range []string{"Ada", "Bora", "Cem", "Deniz", "Ece", "Filiz"} {
		c := &customer.Customer{ID: id.NewCustomerID(), Name: name}
		customers = append(customers, c)
		invoices = append(invoices, inv(c.ID, "", int64(1000*(i+1)), 0, march))
	}
	// Ada also billed earlier in the year.
	invoices = append(invoices, inv(customers[0].ID, "", 10000, 0, types.NewDate(2024, time.January, 2)))

	rep := r.TopCustomers(invoices, customers, Monthly, 0)
	require.Len(t, rep.Customers, DefaultTopCustomers)
	assert.Equal(t, "Filiz", rep.Customers[0].Name)
	assert.Equal(t, types.TRY(6000), rep.Customers[0].TotalAmount)
	assert.Equal(t, "Bora", rep.Customers[4].Name)
	assert.Equal(t, types.TRY(21000), rep.Total)

	yearly := r.TopCustomers(invoices, customers, Yearly, 2)
	require.Len(t, yearly.Customers, 2)
	assert.Equal(t, "Ada", yearly.Customers[0].Name)
	assert.Equal(t, 2, yearly.Customers[0].InvoiceCount)
	assert.Equal(t, types.TRY(11000), yearly.Customers[0].TotalAmount)
}

func TestOtherCurrenciesAreSkipped(t *testing.T) {
	r := newReporter()
	today := types.DateOf(now)
	cust := id.NewCustomerID()

	foreign := &invoice.Invoice{
		ID:         id.NewInvoiceID(),
		Number:     "FAT000002",
		CustomerID: cust,
		Amount:     types.USD(5000),
		Date:       today,
	}
	foreign.ApplyPayments(types.USD(1000))

	invoices := []*invoice.Invoice{inv(cust, "FAT000001", 1000, 0, today), foreign}
	expenses := []*expense.Expense{
		exp("Kira", 300, today),
		{ID: id.NewExpenseID(), Label: "Kira", Amount: types.EUR(900), Date: today},
	}

	d, err := r.Dashboard(invoices, expenses, 1, 3, 2024)
	require.NoError(t, err)
	assert.Equal(t, types.TRY(1000), d.Monthly.InvoiceTotal)
	assert.Equal(t, types.TRY(300), d.Monthly.ExpenseTotal)
	assert.Equal(t, 2, d.Monthly.Skipped)
	assert.Equal(t, types.TRY(1000), d.PendingAmount)
	assert.Equal(t, 1, d.Skipped)

	aging := r.Aging(invoices)
	assert.Equal(t, 1, aging.Count)
	assert.Equal(t, 1, aging.Skipped)
	assert.Equal(t, types.TRY(1000), aging.Total)

	byLabel := r.ExpensesByCategory(expenses, Monthly)
	require.Len(t, byLabel.Categories, 1)
	assert.Equal(t, types.TRY(300), byLabel.Total)
	assert.Equal(t, 100.0, byLabel.Categories[0].Share)
	assert.Equal(t, 1, byLabel.Skipped)

	top := r.TopCustomers(invoices, nil, Monthly, 5)
	require.Len(t, top.Customers, 1)
	assert.Equal(t, types.TRY(1000), top.Customers[0].TotalAmount)
	assert.Equal(t, 1, top.Skipped)
}
