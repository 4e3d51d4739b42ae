package bookkeeper

import (
	"context"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/report"
)

// ──────────────────────────────────────────────────
// Reports
// ──────────────────────────────────────────────────

// DashboardStats returns the month and year totals for a user along with
// the all-time pending amount.
func (b *Bookkeeper) DashboardStats(ctx context.Context, userID string, month, year int) (*report.Dashboard, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := reportError(report.ValidateMonth(month, year)); err != nil {
		return nil, err
	}

	invoices, err := b.store.ListInvoices(ctx, userID, invoice.ListOpts{})
	if err != nil {
		return nil, err
	}
	expenses, err := b.store.ListExpenses(ctx, userID, expense.ListOpts{})
	if err != nil {
		return nil, err
	}
	customers, err := b.store.ListCustomers(ctx, userID, customer.ListOpts{})
	if err != nil {
		return nil, err
	}

	d, err := b.reporter.Dashboard(invoices, expenses, len(customers), month, year)
	if err != nil {
		return nil, reportError(err)
	}
	b.warnSkipped("dashboard", userID, d.Skipped+d.Yearly.Skipped)
	return d, nil
}

// ExpenseReport groups the user's expenses of the current month or year
// by label.
func (b *Bookkeeper) ExpenseReport(ctx context.Context, userID string, period report.Period) (*report.ExpenseReport, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	period, err := report.ParsePeriod(string(period))
	if err != nil {
		return nil, reportError(err)
	}

	from, to := b.reporter.Window(period)
	expenses, err := b.store.ListExpenses(ctx, userID, expense.ListOpts{From: from, To: to})
	if err != nil {
		return nil, err
	}

	rep := b.reporter.ExpensesByCategory(expenses, period)
	b.warnSkipped("expenses", userID, rep.Skipped)
	return rep, nil
}

// AgingReport buckets the user's unpaid balances by age.
func (b *Bookkeeper) AgingReport(ctx context.Context, userID string) (*report.AgingReport, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	invoices, err := b.store.ListInvoices(ctx, userID, invoice.ListOpts{})
	if err != nil {
		return nil, err
	}

	rep := b.reporter.Aging(invoices)
	b.warnSkipped("aging", userID, rep.Skipped)
	return rep, nil
}

// TopCustomers ranks the user's customers by amount billed in the current
// month or year. n <= 0 uses the configured default.
func (b *Bookkeeper) TopCustomers(ctx context.Context, userID string, period report.Period, n int) (*report.TopCustomersReport, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	period, err := report.ParsePeriod(string(period))
	if err != nil {
		return nil, reportError(err)
	}
	if n <= 0 {
		n = b.topCustomers
	}

	from, to := b.reporter.Window(period)
	invoices, err := b.store.ListInvoices(ctx, userID, invoice.ListOpts{From: from, To: to})
	if err != nil {
		return nil, err
	}
	customers, err := b.store.ListCustomers(ctx, userID, customer.ListOpts{})
	if err != nil {
		return nil, err
	}

	rep := b.reporter.TopCustomers(invoices, customers, period, n)
	b.warnSkipped("top-customers", userID, rep.Skipped)
	return rep, nil
}

// YearSeries returns the user's billed, received and spent totals for each
// month of year.
func (b *Bookkeeper) YearSeries(ctx context.Context, userID string, year int) ([]report.MonthTotals, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	invoices, err := b.store.ListInvoices(ctx, userID, invoice.ListOpts{})
	if err != nil {
		return nil, err
	}
	expenses, err := b.store.ListExpenses(ctx, userID, expense.ListOpts{})
	if err != nil {
		return nil, err
	}

	series, err := b.reporter.YearSeries(invoices, expenses, year)
	return series, reportError(err)
}

func (b *Bookkeeper) warnSkipped(name, userID string, n int) {
	if n == 0 {
		return
	}
	b.logger.Warn("report left out rows in another currency",
		"report", name,
		"user_id", userID,
		"currency", b.reporter.Currency(),
		"skipped", n,
	)
}
