// Package bookkeeper provides invoicing, payment reconciliation and financial
// reporting for small businesses.
//
// Bookkeeper is designed as a library, not a service. Import it directly into
// your Go application, or run the bundled HTTP API and CLI from
// cmd/bookkeeper. It provides:
//
//   - Customers, invoices, itemized payments and expenses per user
//   - Reconciliation that keeps an invoice's paid amount equal to the sum of
//     its payments, serialized per invoice
//   - Gap-free per-user invoice numbers (FAT000001, FAT000002, ...)
//   - Dashboard, expense-by-category, receivables aging and top customer reports
//   - Postgres, MongoDB, SQLite and in-memory stores
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/bookkeeper"
//	    "github.com/xraph/bookkeeper/store/memory"
//	)
//
//	b := bookkeeper.New(memory.New(), bookkeeper.WithCurrency("try"))
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
// # Reconciliation
//
// Payments are the only source of truth for what an invoice has received:
//
//	inv, _ := b.CreateInvoice(ctx, invoice.Input{
//	    UserID:     "user_1",
//	    CustomerID: cust.ID,
//	    Amount:     bookkeeper.TRY(100000), // ₺1000.00
//	})
//	_, err := b.AddPayment(ctx, payment.Input{InvoiceID: inv.ID, Amount: bookkeeper.TRY(40000)})
//
// A payment larger than the remaining balance is rejected with a
// ValidationError before anything is written. Marking an invoice paid records
// one payment for the remaining balance; marking it unpaid removes all of its
// payments.
//
// Every reconciliation runs inside store.Reconcile, which gives the engine
// exclusive access to one invoice and its payments. Backends that cannot lock
// rows detect concurrent writers with a version check; the engine retries
// those conflicts a bounded number of times before returning a ConflictError.
//
// # Reports
//
// Reports are pure computations in package report over the user's entities:
//
//	stats, err := b.DashboardStats(ctx, "user_1", 3, 2024)
//	aging, err := b.AgingReport(ctx, "user_1")
//
// All monetary calculations use integer arithmetic in the smallest currency
// unit (kuruş for TRY, cents for USD).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	cust_01h2xcejqtf2nbrexx3vqjhp41  // Customer ID
//	inv_01h455vb4pex5vsknk084sn02q   // Invoice ID
//	pay_01h455vb4pex5vsknk084sn02q   // Payment ID
//	exp_01h455vb4pex5vsknk084sn02q   // Expense ID
package bookkeeper
