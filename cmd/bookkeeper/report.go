package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xraph/bookkeeper/report"
)

var reportCmd = &cobra.Command{
	Use:       "report dashboard|expenses|aging|top-customers",
	Short:     "Print a report",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"dashboard", "expenses", "aging", "top-customers"},
	Example: `  bookkeeper report dashboard --user u1 --month 3 --year 2024
  bookkeeper report expenses --user u1 --period yearly
  bookkeeper report top-customers --user u1 -n 10 --json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addUserFlag(reportCmd)
	reportCmd.Flags().Int("month", 0, "dashboard month (default: current)")
	reportCmd.Flags().Int("year", 0, "dashboard year (default: current)")
	reportCmd.Flags().String("period", "monthly", "monthly or yearly")
	reportCmd.Flags().IntP("top", "n", 0, "number of top customers (default: books.top_customers)")
	reportCmd.Flags().Bool("json", false, "print JSON instead of a table")
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")
	rawPeriod, _ := cmd.Flags().GetString("period")
	period, err := report.ParsePeriod(rawPeriod)
	if err != nil {
		return err
	}

	var (
		out   any
		table func(w io.Writer)
	)
	switch args[0] {
	case "dashboard":
		today := a.books.Reporter().Today()
		month, _ := cmd.Flags().GetInt("month")
		year, _ := cmd.Flags().GetInt("year")
		if month == 0 {
			month = int(today.Month)
		}
		if year == 0 {
			year = today.Year
		}
		d, err := a.books.DashboardStats(ctx, userID, month, year)
		if err != nil {
			return err
		}
		out, table = d, func(w io.Writer) { printDashboard(w, d) }
	case "expenses":
		rep, err := a.books.ExpenseReport(ctx, userID, period)
		if err != nil {
			return err
		}
		out, table = rep, func(w io.Writer) { printExpenses(w, rep) }
	case "aging":
		rep, err := a.books.AgingReport(ctx, userID)
		if err != nil {
			return err
		}
		out, table = rep, func(w io.Writer) { printAging(w, rep) }
	case "top-customers":
		n, _ := cmd.Flags().GetInt("top")
		rep, err := a.books.TopCustomers(ctx, userID, period, n)
		if err != nil {
			return err
		}
		out, table = rep, func(w io.Writer) { printTopCustomers(w, rep) }
	default:
		return fmt.Errorf("unknown report %q", args[0])
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func printDashboard(w io.Writer, d *report.Dashboard) {
	fmt.Fprintf(w, "\t%s %d\t%d\n", d.Month, d.Year, d.Year)
	fmt.Fprintf(w, "Invoiced\t%s\t%s\n", d.Monthly.InvoiceTotal, d.Yearly.InvoiceTotal)
	fmt.Fprintf(w, "Received\t%s\t%s\n", d.Monthly.PaymentsReceived, d.Yearly.PaymentsReceived)
	fmt.Fprintf(w, "Expenses\t%s\t%s\n", d.Monthly.ExpenseTotal, d.Yearly.ExpenseTotal)
	fmt.Fprintf(w, "Profit / loss\t%s\t%s\n", d.Monthly.ProfitLoss, d.Yearly.ProfitLoss)
	fmt.Fprintf(w, "Paid / partial / unpaid\t%d / %d / %d\t%d / %d / %d\n",
		d.Monthly.PaidCount, d.Monthly.PartialCount, d.Monthly.UnpaidCount,
		d.Yearly.PaidCount, d.Yearly.PartialCount, d.Yearly.UnpaidCount)
	fmt.Fprintf(w, "Pending\t%s\t\n", d.PendingAmount)
	fmt.Fprintf(w, "Customers\t%d\t\n", d.CustomerCount)
}

func printExpenses(w io.Writer, rep *report.ExpenseReport) {
	fmt.Fprintf(w, "CATEGORY\tTOTAL\tCOUNT\tSHARE\n")
	for _, c := range rep.Categories {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f%%\n", c.Label, c.Total, c.Count, c.Share)
	}
	fmt.Fprintf(w, "Total\t%s\t%d\t\n", rep.Total, rep.Count)
}

func printAging(w io.Writer, rep *report.AgingReport) {
	fmt.Fprintf(w, "BUCKET\tINVOICE\tDAYS\tBALANCE\n")
	for _, b := range rep.Buckets {
		for _, r := range b.Rows {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.Label, r.Invoice.Number, r.DaysOutstanding, r.Balance)
		}
		fmt.Fprintf(w, "%s\t\t\t%s\n", b.Label, b.Total)
	}
	fmt.Fprintf(w, "Total\t%d invoices\t\t%s\n", rep.Count, rep.Total)
}

func printTopCustomers(w io.Writer, rep *report.TopCustomersReport) {
	fmt.Fprintf(w, "CUSTOMER\tINVOICES\tTOTAL\tSHARE\n")
	for _, c := range rep.Customers {
		fmt.Fprintf(w, "%s\t%d\t%s\t%.2f%%\n", c.Name, c.InvoiceCount, c.TotalAmount, c.Share)
	}
}
