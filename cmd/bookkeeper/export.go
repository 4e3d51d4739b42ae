package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/bookkeeper/chart"
	"github.com/xraph/bookkeeper/export"
	"github.com/xraph/bookkeeper/report"
)

var exportCmd = &cobra.Command{
	Use:   "export customers|invoices|expenses|payments|reports|chart",
	Short: "Export data as CSV, reports as XLSX or a chart as HTML",
	Args:  cobra.ExactArgs(1),
	Example: `  bookkeeper export invoices --user u1 -o invoices.csv
  bookkeeper export reports --user u1 --period yearly -o reports.xlsx
  bookkeeper export chart --user u1 --chart year -o year.html`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addUserFlag(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().String("period", "monthly", "report period for reports and charts")
	exportCmd.Flags().String("chart", "expenses", "chart to render: expenses, aging or year")
	exportCmd.Flags().Int("year", 0, "year for the year chart (default: current)")
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	var w io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	rawPeriod, _ := cmd.Flags().GetString("period")
	period, err := report.ParsePeriod(rawPeriod)
	if err != nil {
		return err
	}

	switch args[0] {
	case "reports":
		return export.WriteReports(cmd.Context(), w, a.books, userID, period)
	case "chart":
		rawName, _ := cmd.Flags().GetString("chart")
		name, err := chart.ParseName(rawName)
		if err != nil {
			return err
		}
		year, _ := cmd.Flags().GetInt("year")
		return chart.Render(cmd.Context(), w, a.books, userID, name, chart.Params{Period: period, Year: year})
	default:
		kind, err := export.ParseKind(args[0])
		if err != nil {
			return fmt.Errorf("nothing to export: %w", err)
		}
		return export.WriteCSV(cmd.Context(), w, a.books, userID, kind)
	}
}
