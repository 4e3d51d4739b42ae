// Package plugin provides an extensible plugin system for the bookkeeper.
// Plugins can hook into lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Customer hooks
// ──────────────────────────────────────────────────

// OnCustomerCreated is called after a customer is created.
type OnCustomerCreated interface {
	Plugin
	OnCustomerCreated(ctx context.Context, c *customer.Customer) error
}

// OnCustomerDeleted is called after a customer is deleted.
type OnCustomerDeleted interface {
	Plugin
	OnCustomerDeleted(ctx context.Context, custID id.CustomerID) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated is called after an invoice is created and numbered.
type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceUpdated is called after an invoice's fields are patched.
type OnInvoiceUpdated interface {
	Plugin
	OnInvoiceUpdated(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceDeleted is called after an invoice and its payments are deleted.
type OnInvoiceDeleted interface {
	Plugin
	OnInvoiceDeleted(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoicePaid is called when an invoice's balance reaches zero.
type OnInvoicePaid interface {
	Plugin
	OnInvoicePaid(ctx context.Context, inv *invoice.Invoice) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded is called after a payment is recorded and the invoice
// reconciled.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, p *payment.Payment, inv *invoice.Invoice) error
}

// OnPaymentDeleted is called after a payment is removed and the invoice
// reconciled.
type OnPaymentDeleted interface {
	Plugin
	OnPaymentDeleted(ctx context.Context, p *payment.Payment, inv *invoice.Invoice) error
}

// OnPaymentRejected is called when a payment fails validation.
type OnPaymentRejected interface {
	Plugin
	OnPaymentRejected(ctx context.Context, in payment.Input, err error) error
}

// ──────────────────────────────────────────────────
// Expense hooks
// ──────────────────────────────────────────────────

// OnExpenseRecorded is called after an expense is created.
type OnExpenseRecorded interface {
	Plugin
	OnExpenseRecorded(ctx context.Context, e *expense.Expense) error
}

// OnExpenseDeleted is called after an expense is deleted.
type OnExpenseDeleted interface {
	Plugin
	OnExpenseDeleted(ctx context.Context, expID id.ExpenseID) error
}
