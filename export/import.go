package export

import (
	"bytes"
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
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/types"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("export: missing column")

// ImportResult summarizes a CSV import. A failing row does not stop the
// rows after it.
type ImportResult struct {
	Imported int      `json:"imported"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors,omitempty"`

	errs bookkeeper.MultiError
}

// Err returns the row errors as a bookkeeper.MultiError, or nil when every
// row was imported.
func (r *ImportResult) Err() error { return r.errs.ErrorOrNil() }

func (r *ImportResult) fail(line int, err error) {
	err = fmt.Errorf("row %d: %w", line, err)
	r.errs.Add(err)
	r.Errors = append(r.Errors, err.Error())
}

var required = map[Kind][]string{
	KindCustomers: {"name"},
	KindInvoices:  {"amount"},
	KindExpenses:  {"label", "amount"},
}

// ImportCSV reads records of kind from r and creates each one for userID
// through the engine, so every row passes the same validation as a direct
// call. Invoices name their customer by a customer_id column or, failing
// that, by a customer column matched against existing customer names.
// Payments cannot be imported.
func ImportCSV(ctx context.Context, r io.Reader, b *bookkeeper.Bookkeeper, userID string, kind Kind) (*ImportResult, error) {
	cols, ok := required[kind]
	if !ok {
		return nil, fmt.Errorf("%w: cannot import %q", ErrUnknownKind, kind)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("export: read csv: %w", err)
	}
	if len(records) == 0 {
		return &ImportResult{}, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = string(bytes.TrimPrefix([]byte(h), utf8BOM))
		}
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range cols {
		if _, ok := header[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	if kind == KindInvoices {
		_, byID := header["customer_id"]
		_, byName := header["customer"]
		if !byID && !byName {
			return nil, fmt.Errorf("%w: customer_id or customer", ErrMissingColumn)
		}
	}

	imp := &importer{b: b, userID: userID, header: header}
	res := &ImportResult{Total: len(records) - 1}
	for i, rec := range records[1:] {
		if err := imp.row(ctx, kind, rec); err != nil {
			res.fail(i+2, err)
			continue
		}
		res.Imported++
	}
	return res, nil
}

type importer struct {
	b      *bookkeeper.Bookkeeper
	userID string
	header map[string]int

	names map[string]id.CustomerID
}

func (imp *importer) field(rec []string, col string) string {
	i, ok := imp.header[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (imp *importer) row(ctx context.Context, kind Kind, rec []string) error {
	switch kind {
	case KindCustomers:
		_, err := imp.b.CreateCustomer(ctx, customer.Input{
			UserID:  imp.userID,
			Name:    imp.field(rec, "name"),
			Phone:   imp.field(rec, "phone"),
			Email:   imp.field(rec, "email"),
			Address: imp.field(rec, "address"),
		})
		return err

	case KindExpenses:
		amount, date, err := imp.amountAndDate(rec, "date")
		if err != nil {
			return err
		}
		_, err = imp.b.CreateExpense(ctx, expense.Input{
			UserID: imp.userID,
			Label:  imp.field(rec, "label"),
			Amount: amount,
			Date:   date,
		})
		return err

	case KindInvoices:
		amount, date, err := imp.amountAndDate(rec, "date")
		if err != nil {
			return err
		}
		custID, err := imp.customer(ctx, rec)
		if err != nil {
			return err
		}
		var paid bool
		if s := imp.field(rec, "paid"); s != "" {
			if paid, err = strconv.ParseBool(s); err != nil {
				return bookkeeper.ValidationError{Field: "paid", Message: "must be true or false"}
			}
		} else {
			paid = imp.field(rec, "status") == string(invoice.StatusPaid)
		}
		_, err = imp.b.CreateInvoice(ctx, invoice.Input{
			UserID:       imp.userID,
			CustomerID:   custID,
			Description:  imp.field(rec, "description"),
			Amount:       amount,
			Date:         date,
			ManuallyPaid: paid,
		})
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func (imp *importer) amountAndDate(rec []string, dateCol string) (types.Money, types.Date, error) {
	amount, err := types.ParseMoney(imp.field(rec, "amount"), imp.b.Currency())
	if err != nil {
		return types.Money{}, types.Date{}, bookkeeper.ValidationError{Field: "amount", Message: err.Error()}
	}
	var date types.Date
	if s := imp.field(rec, dateCol); s != "" {
		if date, err = types.ParseDate(s); err != nil {
			return types.Money{}, types.Date{}, bookkeeper.ValidationError{Field: dateCol, Message: err.Error()}
		}
	}
	return amount, date, nil
}

func (imp *importer) customer(ctx context.Context, rec []string) (id.CustomerID, error) {
	if s := imp.field(rec, "customer_id"); s != "" {
		custID, err := id.ParseCustomerID(s)
		if err != nil {
			return id.Nil, bookkeeper.ValidationError{Field: "customer_id", Message: err.Error()}
		}
		return custID, nil
	}

	name := strings.ToLower(imp.field(rec, "customer"))
	if name == "" {
		return id.Nil, bookkeeper.ValidationError{Field: "customer_id", Message: "is required"}
	}
	if imp.names == nil {
		customers, err := imp.b.ListCustomers(ctx, imp.userID, customer.ListOpts{})
		if err != nil {
			return id.Nil, err
		}
		imp.names = make(map[string]id.CustomerID, len(customers))
		for _, c := range customers {
			imp.names[strings.ToLower(c.Name)] = c.ID
		}
	}
	custID, ok := imp.names[name]
	if !ok {
		return id.Nil, fmt.Errorf("%w: %q", bookkeeper.ErrCustomerNotFound, imp.field(rec, "customer"))
	}
	return custID, nil
}
