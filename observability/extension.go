// Package observability provides a metrics plugin for the bookkeeper that
// counts lifecycle events and observes amounts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnCustomerCreated = (*MetricsExtension)(nil)
	_ plugin.OnCustomerDeleted = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated  = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceDeleted  = (*MetricsExtension)(nil)
	_ plugin.OnInvoicePaid     = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded = (*MetricsExtension)(nil)
	_ plugin.OnPaymentDeleted  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRejected = (*MetricsExtension)(nil)
	_ plugin.OnExpenseRecorded = (*MetricsExtension)(nil)
	_ plugin.OnExpenseDeleted  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a bookkeeper plugin to track billing activity.
type MetricsExtension struct {
	factory MetricFactory

	// Customer metrics
	CustomerCreated Counter
	CustomerDeleted Counter

	// Invoice metrics
	InvoiceCreated Counter
	InvoiceUpdated Counter
	InvoiceDeleted Counter
	InvoicePaid    Counter
	InvoiceAmount  Histogram

	// Payment metrics
	PaymentRecorded Counter
	PaymentManual   Counter
	PaymentDeleted  Counter
	PaymentRejected Counter
	PaymentAmount   Histogram

	// Expense metrics
	ExpenseRecorded Counter
	ExpenseDeleted  Counter
	ExpenseAmount   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// The forge extension installs one through extension.WithMetrics.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		CustomerCreated: factory.Counter("bookkeeper.customer.created"),
		CustomerDeleted: factory.Counter("bookkeeper.customer.deleted"),

		InvoiceCreated: factory.Counter("bookkeeper.invoice.created"),
		InvoiceUpdated: factory.Counter("bookkeeper.invoice.updated"),
		InvoiceDeleted: factory.Counter("bookkeeper.invoice.deleted"),
		InvoicePaid:    factory.Counter("bookkeeper.invoice.paid"),
		InvoiceAmount:  factory.Histogram("bookkeeper.invoice.amount"),

		PaymentRecorded: factory.Counter("bookkeeper.payment.recorded"),
		PaymentManual:   factory.Counter("bookkeeper.payment.manual"),
		PaymentDeleted:  factory.Counter("bookkeeper.payment.deleted"),
		PaymentRejected: factory.Counter("bookkeeper.payment.rejected"),
		PaymentAmount:   factory.Histogram("bookkeeper.payment.amount"),

		ExpenseRecorded: factory.Counter("bookkeeper.expense.recorded"),
		ExpenseDeleted:  factory.Counter("bookkeeper.expense.deleted"),
		ExpenseAmount:   factory.Histogram("bookkeeper.expense.amount"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Customer hooks
// ──────────────────────────────────────────────────

// OnCustomerCreated implements plugin.OnCustomerCreated.
func (m *MetricsExtension) OnCustomerCreated(_ context.Context, _ *customer.Customer) error {
	m.CustomerCreated.Inc()
	return nil
}

// OnCustomerDeleted implements plugin.OnCustomerDeleted.
func (m *MetricsExtension) OnCustomerDeleted(_ context.Context, _ id.CustomerID) error {
	m.CustomerDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Invoice hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, inv *invoice.Invoice) error {
	m.InvoiceCreated.Inc()
	m.InvoiceAmount.Observe(inv.Amount.Float())
	return nil
}

// OnInvoiceUpdated implements plugin.OnInvoiceUpdated.
func (m *MetricsExtension) OnInvoiceUpdated(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceUpdated.Inc()
	return nil
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (m *MetricsExtension) OnInvoiceDeleted(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceDeleted.Inc()
	return nil
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (m *MetricsExtension) OnInvoicePaid(_ context.Context, _ *invoice.Invoice) error {
	m.InvoicePaid.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, p *payment.Payment, _ *invoice.Invoice) error {
	m.PaymentRecorded.Inc()
	if p.Manual {
		m.PaymentManual.Inc()
	}
	m.PaymentAmount.Observe(p.Amount.Float())
	return nil
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
func (m *MetricsExtension) OnPaymentDeleted(_ context.Context, _ *payment.Payment, _ *invoice.Invoice) error {
	m.PaymentDeleted.Inc()
	return nil
}

// OnPaymentRejected implements plugin.OnPaymentRejected.
func (m *MetricsExtension) OnPaymentRejected(_ context.Context, _ payment.Input, _ error) error {
	m.PaymentRejected.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Expense hooks
// ──────────────────────────────────────────────────

// OnExpenseRecorded implements plugin.OnExpenseRecorded.
func (m *MetricsExtension) OnExpenseRecorded(_ context.Context, e *expense.Expense) error {
	m.ExpenseRecorded.Inc()
	m.ExpenseAmount.Observe(e.Amount.Float())
	return nil
}

// OnExpenseDeleted implements plugin.OnExpenseDeleted.
func (m *MetricsExtension) OnExpenseDeleted(_ context.Context, _ id.ExpenseID) error {
	m.ExpenseDeleted.Inc()
	return nil
}
