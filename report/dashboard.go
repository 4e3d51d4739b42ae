package report

import (
	"fmt"
	"time"

	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/types"
)

// PeriodTotals aggregates the invoices and expenses dated inside a period.
//
// PaymentsReceived sums the paid amounts of invoices dated in the period,
// wherever their payments were dated. ProfitLoss is billed minus spent.
type PeriodTotals struct {
	InvoiceTotal     types.Money `json:"invoice_total"`
	PaymentsReceived types.Money `json:"payments_received"`
	ExpenseTotal     types.Money `json:"expense_total"`
	ProfitLoss       types.Money `json:"profit_loss"`
	InvoiceCount     int         `json:"invoice_count"`
	PaidCount        int         `json:"paid_count"`
	PartialCount     int         `json:"partial_count"`
	UnpaidCount      int         `json:"unpaid_count"`
	ExpenseCount     int         `json:"expense_count"`
	// Skipped counts invoices and expenses in another currency.
	Skipped int `json:"skipped,omitempty"`
}

// Dashboard is the headline view for one month and its year.
type Dashboard struct {
	Month         time.Month   `json:"month"`
	Year          int          `json:"year"`
	Monthly       PeriodTotals `json:"monthly"`
	Yearly        PeriodTotals `json:"yearly"`
	PendingAmount types.Money  `json:"pending_amount"`
	CustomerCount int          `json:"customer_count"`
	// Skipped counts invoices in another currency left out of PendingAmount.
	Skipped int `json:"skipped,omitempty"`
}

// MonthTotals is one month of a yearly series.
type MonthTotals struct {
	Month time.Month `json:"month"`
	PeriodTotals
}

// Dashboard computes month and year totals. PendingAmount covers every
// invoice regardless of date.
func (r *Reporter) Dashboard(invoices []*invoice.Invoice, expenses []*expense.Expense, customerCount, month, year int) (*Dashboard, error) {
	if err := ValidateMonth(month, year); err != nil {
		return nil, err
	}

	m := time.Month(month)
	d := &Dashboard{
		Month: m,
		Year:  year,
		Monthly: r.totals(invoices, expenses, func(date types.Date) bool {
			return date.InMonth(year, m)
		}),
		Yearly: r.totals(invoices, expenses, func(date types.Date) bool {
			return date.Year == year
		}),
		PendingAmount: r.zero(),
		CustomerCount: customerCount,
	}

	for _, inv := range invoices {
		if !r.counts(inv.Amount) {
			d.Skipped++
			continue
		}
		d.PendingAmount = d.PendingAmount.Add(inv.Remaining())
	}

	return d, nil
}

// YearSeries returns the twelve monthly totals of year.
func (r *Reporter) YearSeries(invoices []*invoice.Invoice, expenses []*expense.Expense, year int) ([]MonthTotals, error) {
	if year < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	series := make([]MonthTotals, 0, 12)
	for m := time.January; m <= time.December; m++ {
		series = append(series, MonthTotals{
			Month: m,
			PeriodTotals: r.totals(invoices, expenses, func(date types.Date) bool {
				return date.InMonth(year, m)
			}),
		})
	}
	return series, nil
}

// ValidateMonth rejects months outside 1-12 and years before 1.
func ValidateMonth(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if year < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return nil
}

func (r *Reporter) totals(invoices []*invoice.Invoice, expenses []*expense.Expense, match func(types.Date) bool) PeriodTotals {
	t := PeriodTotals{
		InvoiceTotal:     r.zero(),
		PaymentsReceived: r.zero(),
		ExpenseTotal:     r.zero(),
	}

	for _, inv := range invoices {
		if !match(inv.Date) {
			continue
		}
		if !r.counts(inv.Amount) {
			t.Skipped++
			continue
		}
		t.InvoiceTotal = t.InvoiceTotal.Add(inv.Amount)
		t.PaymentsReceived = t.PaymentsReceived.Add(inv.PaidAmount)
		t.InvoiceCount++
		switch inv.Status() {
		case invoice.StatusPaid:
			t.PaidCount++
		case invoice.StatusPartial:
			t.PartialCount++
		default:
			t.UnpaidCount++
		}
	}

	for _, e := range expenses {
		if !match(e.Date) {
			continue
		}
		if !r.counts(e.Amount) {
			t.Skipped++
			continue
		}
		t.ExpenseTotal = t.ExpenseTotal.Add(e.Amount)
		t.ExpenseCount++
	}

	t.ProfitLoss = t.InvoiceTotal.Subtract(t.ExpenseTotal)
	return t
}
