package bookkeeper_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/report"
	"github.com/xraph/bookkeeper/store/memory"
	"github.com/xraph/bookkeeper/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation run as written.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		b := bookkeeper.New(store,
			bookkeeper.WithLogger(slog.Default()),
			bookkeeper.WithCurrency("try"),
			bookkeeper.WithMaxRetries(3),
		)

		ctx := context.Background()
		if err := b.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer b.Stop()

		cust, err := b.CreateCustomer(ctx, customer.Input{UserID: "user_1", Name: "Acme Ltd."})
		if err != nil {
			t.Fatal(err)
		}

		inv, err := b.CreateInvoice(ctx, invoice.Input{
			UserID:      "user_1",
			CustomerID:  cust.ID,
			Description: "Consulting",
			Amount:      bookkeeper.TRY(100000), // ₺1000.00
			Date:        types.DateOf(time.Now()),
		})
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Invoice issued: %s for %s\n", inv.Number, inv.Amount)

		if _, err := b.AddPayment(ctx, payment.Input{InvoiceID: inv.ID, Amount: bookkeeper.TRY(40000)}); err != nil {
			t.Fatal(err)
		}

		// Overpaying is rejected before anything is written.
		_, err = b.AddPayment(ctx, payment.Input{InvoiceID: inv.ID, Amount: bookkeeper.TRY(70000)})
		if !bookkeeper.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}

		stats, err := b.DashboardStats(ctx, "user_1", int(time.Now().Month()), time.Now().Year())
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Pending: %s\n", stats.PendingAmount)

		if _, err := b.AgingReport(ctx, "user_1"); err != nil {
			t.Fatal(err)
		}
		if _, err := b.ExpenseReport(ctx, "user_1", report.Monthly); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.TRY(100000) // ₺1000.00
		_ = types.EUR(9900)   // €99.00
		_ = types.Zero("try") // ₺0.00

		m1 := types.MustParseMoney("400.00", "try")
		m2 := types.MustParseMoney("600", "try")
		if got := m1.Add(m2); got != types.TRY(100000) {
			t.Errorf("Add: got %s", got)
		}

		// Formatting
		if got := m1.FormatMajor(); got != "400.00" {
			t.Errorf("FormatMajor: got %q", got)
		}
	})
}
