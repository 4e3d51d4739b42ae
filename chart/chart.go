// Package chart renders report data as standalone HTML charts.
package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/report"
)

// Name selects a chart.
type Name string

const (
	// Expenses is a pie of expense totals per category.
	Expenses Name = "expenses"
	// Aging is a bar per receivables aging bucket.
	Aging Name = "aging"
	// Year compares billed, received and spent per month of a year.
	Year Name = "year"
)

// ErrUnknownChart is returned by ParseName.
var ErrUnknownChart = errors.New("chart: unknown chart")

// ParseName accepts a chart name in any case.
func ParseName(s string) (Name, error) {
	switch n := Name(strings.ToLower(strings.TrimSpace(s))); n {
	case Expenses, Aging, Year:
		return n, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChart, s)
	}
}

// Params carries the report arguments a chart may need.
type Params struct {
	Period report.Period
	Year   int
}

// Render builds chart name from userID's data and writes it to w as an
// HTML page.
func Render(ctx context.Context, w io.Writer, b *bookkeeper.Bookkeeper, userID string, name Name, p Params) error {
	var r interface{ Render(io.Writer) error }

	switch name {
	case Expenses:
		rep, err := b.ExpenseReport(ctx, userID, p.Period)
		if err != nil {
			return err
		}
		r = ExpensePie(rep)
	case Aging:
		rep, err := b.AgingReport(ctx, userID)
		if err != nil {
			return err
		}
		r = AgingBar(rep)
	case Year:
		year := p.Year
		if year == 0 {
			year = b.Reporter().Today().Year
		}
		series, err := b.YearSeries(ctx, userID, year)
		if err != nil {
			return err
		}
		r = YearBars(series, year, b.Currency())
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}

	return r.Render(w)
}

// ExpensePie plots each category's share of spending.
func ExpensePie(rep *report.ExpenseReport) *charts.Pie {
	data := make([]opts.PieData, 0, len(rep.Categories))
	for _, c := range rep.Categories {
		data = append(data, opts.PieData{Name: c.Label, Value: c.Total.Float()})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "420px",
			ChartID: "bookkeeper_expenses",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Expenses by category",
			Subtitle: fmt.Sprintf("%s to %s", rep.From, rep.To),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "item",
		}),
	)
	pie.AddSeries("Expenses", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {d}%",
			}),
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"35%", "70%"},
			}),
		)
	return pie
}

// AgingBar plots the outstanding balance in each aging bucket.
func AgingBar(rep *report.AgingReport) *charts.Bar {
	labels := make([]string, 0, len(rep.Buckets))
	data := make([]opts.BarData, 0, len(rep.Buckets))
	for _, b := range rep.Buckets {
		labels = append(labels, b.Label)
		data = append(data, opts.BarData{Value: b.Total.Float()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "360px",
			ChartID: "bookkeeper_aging",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Receivables aging",
			Subtitle: "as of " + rep.AsOf.String(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
	)
	bar.SetXAxis(labels).AddSeries("Outstanding", data)
	return bar
}

// YearBars compares invoiced, received and expense totals month by month.
func YearBars(series []report.MonthTotals, year int, currency string) *charts.Bar {
	months := make([]string, 0, len(series))
	billed := make([]opts.BarData, 0, len(series))
	received := make([]opts.BarData, 0, len(series))
	spent := make([]opts.BarData, 0, len(series))
	for _, m := range series {
		months = append(months, m.Month.String()[:3])
		billed = append(billed, opts.BarData{Value: m.InvoiceTotal.Float()})
		received = append(received, opts.BarData{Value: m.PaymentsReceived.Float()})
		spent = append(spent, opts.BarData{Value: m.ExpenseTotal.Float()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "380px",
			ChartID: "bookkeeper_year",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%d overview", year),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: strings.ToUpper(currency),
		}),
	)
	bar.SetXAxis(months).
		AddSeries("Invoiced", billed).
		AddSeries("Received", received).
		AddSeries("Expenses", spent)
	return bar
}
