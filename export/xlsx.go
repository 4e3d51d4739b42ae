package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/report"
)

// ContentTypeXLSX is the MIME type of the workbook written by WriteReports.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetDashboard = "Dashboard"
	sheetExpenses  = "Expenses"
	sheetAging     = "Aging"
	sheetCustomers = "Top customers"
)

// WriteReports writes a workbook with one sheet per report for userID:
// the dashboard for the current month, expenses by category and top
// customers for period, and receivables aging.
func WriteReports(ctx context.Context, w io.Writer, b *bookkeeper.Bookkeeper, userID string, period report.Period) error {
	today := b.Reporter().Today()
	dash, err := b.DashboardStats(ctx, userID, int(today.Month), today.Year)
	if err != nil {
		return err
	}
	expenses, err := b.ExpenseReport(ctx, userID, period)
	if err != nil {
		return err
	}
	aging, err := b.AgingReport(ctx, userID)
	if err != nil {
		return err
	}
	top, err := b.TopCustomers(ctx, userID, period, 0)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sw := &sheetWriter{f: f}
	sw.dashboard(dash)
	sw.expenses(expenses)
	sw.aging(aging)
	sw.customers(top)
	if sw.err != nil {
		return fmt.Errorf("export: build workbook: %w", sw.err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: build workbook: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheetDashboard); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so the sheet builders read straight.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (s *sheetWriter) sheet(name string, widths map[string]float64) {
	if s.err != nil {
		return
	}
	if _, s.err = s.f.NewSheet(name); s.err != nil {
		return
	}
	for col, width := range widths {
		if s.err = s.f.SetColWidth(name, col, col, width); s.err != nil {
			return
		}
	}
}

func (s *sheetWriter) row(sheet string, row int, values ...any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetSheetRow(sheet, cell, &values)
}

func (s *sheetWriter) dashboard(d *report.Dashboard) {
	s.sheet(sheetDashboard, map[string]float64{"A": 22, "B": 16, "C": 16})
	s.row(sheetDashboard, 1, "", fmt.Sprintf("%s %d", d.Month, d.Year), fmt.Sprintf("Year %d", d.Year))
	lines := []struct {
		label   string
		monthly any
		yearly  any
	}{
		{"Invoiced", d.Monthly.InvoiceTotal.Float(), d.Yearly.InvoiceTotal.Float()},
		{"Received", d.Monthly.PaymentsReceived.Float(), d.Yearly.PaymentsReceived.Float()},
		{"Expenses", d.Monthly.ExpenseTotal.Float(), d.Yearly.ExpenseTotal.Float()},
		{"Profit / loss", d.Monthly.ProfitLoss.Float(), d.Yearly.ProfitLoss.Float()},
		{"Invoices", d.Monthly.InvoiceCount, d.Yearly.InvoiceCount},
		{"Paid", d.Monthly.PaidCount, d.Yearly.PaidCount},
		{"Partially paid", d.Monthly.PartialCount, d.Yearly.PartialCount},
		{"Unpaid", d.Monthly.UnpaidCount, d.Yearly.UnpaidCount},
	}
	for i, l := range lines {
		s.row(sheetDashboard, i+2, l.label, l.monthly, l.yearly)
	}
	next := len(lines) + 3
	s.row(sheetDashboard, next, "Pending", d.PendingAmount.Float())
	s.row(sheetDashboard, next+1, "Customers", d.CustomerCount)
}

func (s *sheetWriter) expenses(rep *report.ExpenseReport) {
	s.sheet(sheetExpenses, map[string]float64{"A": 24, "B": 14, "C": 10, "D": 10})
	s.row(sheetExpenses, 1, "Category", "Total", "Count", "Share %")
	for i, c := range rep.Categories {
		s.row(sheetExpenses, i+2, c.Label, c.Total.Float(), c.Count, c.Share)
	}
	s.row(sheetExpenses, len(rep.Categories)+2, "Total", rep.Total.Float(), rep.Count, 100)
}

func (s *sheetWriter) aging(rep *report.AgingReport) {
	s.sheet(sheetAging, map[string]float64{"A": 14, "B": 14, "C": 12, "D": 10, "E": 14})
	s.row(sheetAging, 1, "Bucket", "Invoice", "Date", "Days", "Balance")
	row := 2
	for _, b := range rep.Buckets {
		for _, r := range b.Rows {
			s.row(sheetAging, row, b.Label, r.Invoice.Number, r.Invoice.Date.String(), r.DaysOutstanding, r.Balance.Float())
			row++
		}
		s.row(sheetAging, row, b.Label, "", "", "", b.Total.Float())
		row++
	}
	s.row(sheetAging, row, "Total", "", "", rep.Count, rep.Total.Float())
}

func (s *sheetWriter) customers(rep *report.TopCustomersReport) {
	s.sheet(sheetCustomers, map[string]float64{"A": 28, "B": 10, "C": 14, "D": 10})
	s.row(sheetCustomers, 1, "Customer", "Invoices", "Total", "Share %")
	for i, c := range rep.Customers {
		s.row(sheetCustomers, i+2, c.Name, c.InvoiceCount, c.TotalAmount.Float(), c.Share)
	}
}
