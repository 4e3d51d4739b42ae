package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/bookkeeper/export"
)

var importCmd = &cobra.Command{
	Use:   "import customers|invoices|expenses FILE",
	Short: "Import records from a CSV file",
	Long: `Import records from a CSV file with a header row. Each row is created
through the same validation as the API; failing rows are reported and
skipped. Use "-" to read standard input.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	addUserFlag(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	kind, err := export.ParseKind(args[0])
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	res, err := export.ImportCSV(cmd.Context(), r, a.books, userID, kind)
	if err != nil {
		return err
	}

	cmd.Printf("imported %d of %d %s\n", res.Imported, res.Total, kind)
	for _, e := range res.Errors {
		cmd.PrintErrln("  " + e)
	}
	if res.Imported < res.Total {
		return fmt.Errorf("%d rows failed", res.Total-res.Imported)
	}
	return nil
}
