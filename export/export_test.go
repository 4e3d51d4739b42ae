package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/export"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/report"
	"github.com/xraph/bookkeeper/store/memory"
	"github.com/xraph/bookkeeper/types"
)

const user = "user_1"

func engine(t *testing.T) *bookkeeper.Bookkeeper {
	t.Helper()
	b := bookkeeper.New(memory.New(),
		bookkeeper.WithCurrency("try"),
		bookkeeper.WithClock(report.FixedClock(time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC))),
		bookkeeper.WithLocation(time.UTC),
	)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Stop() })
	return b
}

func seed(t *testing.T, b *bookkeeper.Bookkeeper) *invoice.Invoice {
	t.Helper()
	ctx := context.Background()

	cust, err := b.CreateCustomer(ctx, customer.Input{UserID: user, Name: `Şahin "Quoted", Ltd.`})
	require.NoError(t, err)
	inv, err := b.CreateInvoice(ctx, invoice.Input{
		UserID:     user,
		CustomerID: cust.ID,
		Amount:     types.TRY(100000),
		Date:       types.MustParseDate("2024-03-01"),
	})
	require.NoError(t, err)
	_, err = b.AddPayment(ctx, payment.Input{
		InvoiceID:   inv.ID,
		Amount:      types.TRY(40000),
		PaymentDate: types.MustParseDate("2024-03-05"),
		Notes:       "first",
	})
	require.NoError(t, err)
	_, err = b.CreateExpense(ctx, expense.Input{
		UserID: user,
		Label:  "Kira",
		Amount: types.TRY(50000),
		Date:   types.MustParseDate("2024-03-02"),
	})
	require.NoError(t, err)
	return inv
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "missing byte order mark")
	rows, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParseKind(t *testing.T) {
	k, err := export.ParseKind(" Invoices ")
	require.NoError(t, err)
	assert.Equal(t, export.KindInvoices, k)
	assert.Equal(t, "invoices.csv", k.Filename())

	_, err = export.ParseKind("users")
	assert.ErrorIs(t, err, export.ErrUnknownKind)
}

func TestWriteCSV(t *testing.T) {
	b := engine(t)
	inv := seed(t, b)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(ctx, &buf, b, user, export.KindCustomers))
	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, export.KindCustomers.Headers(), rows[0])
	assert.Equal(t, `Şahin "Quoted", Ltd.`, rows[1][1])

	buf.Reset()
	require.NoError(t, export.WriteCSV(ctx, &buf, b, user, export.KindInvoices))
	rows = readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		inv.ID.String(), "FAT000001", inv.CustomerID.String(), "",
		"1000.00", "400.00", "partial", "2024-03-01",
	}, rows[1])

	buf.Reset()
	require.NoError(t, export.WriteCSV(ctx, &buf, b, user, export.KindPayments))
	rows = readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, "FAT000001", rows[1][2])
	assert.Equal(t, "400.00", rows[1][3])
	assert.Equal(t, "first", rows[1][5])
	assert.Equal(t, "false", rows[1][6])

	buf.Reset()
	require.NoError(t, export.WriteCSV(ctx, &buf, b, user, export.KindExpenses))
	rows = readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Kira", "500.00", "2024-03-02"}, rows[1][1:])
}

func TestImportCustomersAndExpenses(t *testing.T) {
	b := engine(t)
	ctx := context.Background()

	customers := "\xEF\xBB\xBFname,email\nAcme,info@acme.test\n,missing@name.test\nGlobex,\n"
	res, err := export.ImportCSV(ctx, strings.NewReader(customers), b, user, export.KindCustomers)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 3")

	var multi bookkeeper.MultiError
	require.True(t, errors.As(res.Err(), &multi))
	assert.True(t, bookkeeper.IsValidation(multi.Errors[0]))

	expenses := "label,amount,date\nKira,500,2024-03-02\nFatura,abc,2024-03-03\n"
	res, err = export.ImportCSV(ctx, strings.NewReader(expenses), b, user, export.KindExpenses)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Len(t, res.Errors, 1)

	list, err := b.ListExpenses(ctx, user, expense.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.TRY(50000), list[0].Amount)
}

func TestImportInvoicesByCustomerName(t *testing.T) {
	b := engine(t)
	ctx := context.Background()
	_, err := b.CreateCustomer(ctx, customer.Input{UserID: user, Name: "Acme"})
	require.NoError(t, err)

	data := "customer,amount,date,paid\nacme,250.50,2024-03-01,true\nAcme,100,2024-03-02,\nNobody,10,2024-03-03,\n"
	res, err := export.ImportCSV(ctx, strings.NewReader(data), b, user, export.KindInvoices)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 4")

	invoices, err := b.ListInvoices(ctx, user, invoice.ListOpts{})
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	paid := 0
	for _, inv := range invoices {
		if inv.Paid {
			paid++
			assert.Equal(t, types.TRY(25050), inv.PaidAmount)
		}
	}
	assert.Equal(t, 1, paid)
}

func TestImportRejectsMissingColumns(t *testing.T) {
	b := engine(t)

	_, err := export.ImportCSV(context.Background(), strings.NewReader("label\nKira\n"), b, user, export.KindExpenses)
	assert.ErrorIs(t, err, export.ErrMissingColumn)

	_, err = export.ImportCSV(context.Background(), strings.NewReader("amount\n1\n"), b, user, export.KindInvoices)
	assert.ErrorIs(t, err, export.ErrMissingColumn)

	_, err = export.ImportCSV(context.Background(), strings.NewReader("id\n"), b, user, export.KindPayments)
	assert.ErrorIs(t, err, export.ErrUnknownKind)
}

func TestWriteReports(t *testing.T) {
	b := engine(t)
	seed(t, b)

	var buf bytes.Buffer
	require.NoError(t, export.WriteReports(context.Background(), &buf, b, user, report.Monthly))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Dashboard", "Expenses", "Aging", "Top customers"}, f.GetSheetList())

	rows, err := f.GetRows("Expenses")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "Kira", rows[1][0])
	assert.Equal(t, "500", rows[1][1])

	rows, err = f.GetRows("Top customers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `Şahin "Quoted", Ltd.`, rows[1][0])
}
