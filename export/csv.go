// Package export writes bookkeeping data out as CSV files and XLSX
// workbooks, and reads CSV files back in through the engine.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/invoice"
)

// Kind names an exportable collection.
type Kind string

const (
	KindCustomers Kind = "customers"
	KindInvoices  Kind = "invoices"
	KindExpenses  Kind = "expenses"
	KindPayments  Kind = "payments"
)

// ErrUnknownKind is returned for a collection name that cannot be exported
// or imported.
var ErrUnknownKind = errors.New("export: unknown kind")

// utf8BOM makes spreadsheet programs read the file as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseKind accepts a collection name in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindCustomers, KindInvoices, KindExpenses, KindPayments:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Filename is the download name used for kind.
func (k Kind) Filename() string { return string(k) + ".csv" }

// Headers returns the CSV header row written for kind.
func (k Kind) Headers() []string {
	switch k {
	case KindCustomers:
		return []string{"id", "name", "phone", "email", "address", "created_at"}
	case KindInvoices:
		return []string{"id", "invoice_number", "customer_id", "description", "amount", "paid_amount", "status", "date"}
	case KindExpenses:
		return []string{"id", "label", "amount", "date"}
	case KindPayments:
		return []string{"id", "invoice_id", "invoice_number", "amount", "payment_date", "notes", "manual"}
	default:
		return nil
	}
}

// WriteCSV writes every record of kind owned by userID to w, prefixed with
// a UTF-8 byte order mark. Amounts are written in major units.
func WriteCSV(ctx context.Context, w io.Writer, b *bookkeeper.Bookkeeper, userID string, kind Kind) error {
	rows, err := collect(ctx, b, userID, kind)
	if err != nil {
		return err
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(kind.Headers()); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("export: write %s: %w", kind, err)
	}
	return nil
}

func collect(ctx context.Context, b *bookkeeper.Bookkeeper, userID string, kind Kind) ([][]string, error) {
	switch kind {
	case KindCustomers:
		customers, err := b.ListCustomers(ctx, userID, customer.ListOpts{})
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(customers))
		for _, c := range customers {
			rows = append(rows, []string{
				c.ID.String(), c.Name, c.Phone, c.Email, c.Address,
				c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
		return rows, nil

	case KindInvoices:
		invoices, err := b.ListInvoices(ctx, userID, invoice.ListOpts{})
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(invoices))
		for _, inv := range invoices {
			rows = append(rows, []string{
				inv.ID.String(), inv.Number, inv.CustomerID.String(), inv.Description,
				inv.Amount.FormatMajor(), inv.PaidAmount.FormatMajor(),
				string(inv.Status()), inv.Date.String(),
			})
		}
		return rows, nil

	case KindExpenses:
		expenses, err := b.ListExpenses(ctx, userID, expense.ListOpts{})
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(expenses))
		for _, e := range expenses {
			rows = append(rows, []string{e.ID.String(), e.Label, e.Amount.FormatMajor(), e.Date.String()})
		}
		return rows, nil

	case KindPayments:
		invoices, err := b.ListInvoices(ctx, userID, invoice.ListOpts{})
		if err != nil {
			return nil, err
		}
		var rows [][]string
		for _, inv := range invoices {
			payments, err := b.ListPayments(ctx, inv.ID)
			if err != nil {
				return nil, err
			}
			for _, p := range payments {
				rows = append(rows, []string{
					p.ID.String(), inv.ID.String(), inv.Number,
					p.Amount.FormatMajor(), p.PaymentDate.String(), p.Notes,
					strconv.FormatBool(p.Manual),
				})
			}
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
