// Package audithook turns bookkeeping lifecycle events into audit records.
//
// It defines a local Recorder interface so the package does not depend on
// any audit backend. Callers inject a RecorderFunc adapter, or the
// SlogRecorder below, at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnCustomerCreated = (*Extension)(nil)
	_ plugin.OnCustomerDeleted = (*Extension)(nil)
	_ plugin.OnInvoiceCreated  = (*Extension)(nil)
	_ plugin.OnInvoiceUpdated  = (*Extension)(nil)
	_ plugin.OnInvoiceDeleted  = (*Extension)(nil)
	_ plugin.OnInvoicePaid     = (*Extension)(nil)
	_ plugin.OnPaymentRecorded = (*Extension)(nil)
	_ plugin.OnPaymentDeleted  = (*Extension)(nil)
	_ plugin.OnPaymentRejected = (*Extension)(nil)
	_ plugin.OnExpenseRecorded = (*Extension)(nil)
	_ plugin.OnExpenseDeleted  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// SlogRecorder writes every audit event as a structured log line.
func SlogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, evt *AuditEvent) error {
		logger.InfoContext(ctx, "audit",
			"action", evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"user_id", evt.UserID,
			"outcome", evt.Outcome,
			"severity", evt.Severity,
			"metadata", evt.Metadata,
		)
		return nil
	})
}

// Extension records bookkeeping lifecycle events through a Recorder.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Customer hooks
// ──────────────────────────────────────────────────

// OnCustomerCreated implements plugin.OnCustomerCreated.
func (e *Extension) OnCustomerCreated(ctx context.Context, c *customer.Customer) error {
	return e.record(ctx, ActionCustomerCreated, SeverityInfo, OutcomeSuccess,
		ResourceCustomer, c.ID.String(), c.UserID, CategoryCustomer, nil,
		"name", c.Name,
	)
}

// OnCustomerDeleted implements plugin.OnCustomerDeleted.
func (e *Extension) OnCustomerDeleted(ctx context.Context, custID id.CustomerID) error {
	return e.record(ctx, ActionCustomerDeleted, SeverityWarning, OutcomeSuccess,
		ResourceCustomer, custID.String(), "", CategoryCustomer, nil,
	)
}

// ──────────────────────────────────────────────────
// Invoice hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (e *Extension) OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceCreated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), inv.UserID, CategoryBilling, nil,
		invoiceMeta(inv)...,
	)
}

// OnInvoiceUpdated implements plugin.OnInvoiceUpdated.
func (e *Extension) OnInvoiceUpdated(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceUpdated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), inv.UserID, CategoryBilling, nil,
		invoiceMeta(inv)...,
	)
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (e *Extension) OnInvoiceDeleted(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceDeleted, SeverityWarning, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), inv.UserID, CategoryBilling, nil,
		invoiceMeta(inv)...,
	)
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (e *Extension) OnInvoicePaid(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoicePaid, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), inv.UserID, CategoryPayment, nil,
		invoiceMeta(inv)...,
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, p *payment.Payment, inv *invoice.Invoice) error {
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePayment, p.ID.String(), inv.UserID, CategoryPayment, nil,
		"invoice_id", inv.ID.String(),
		"invoice_number", inv.Number,
		"amount", p.Amount.String(),
		"manual", p.Manual,
		"remaining", inv.Remaining().String(),
	)
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
func (e *Extension) OnPaymentDeleted(ctx context.Context, p *payment.Payment, inv *invoice.Invoice) error {
	return e.record(ctx, ActionPaymentDeleted, SeverityWarning, OutcomeSuccess,
		ResourcePayment, p.ID.String(), inv.UserID, CategoryPayment, nil,
		"invoice_id", inv.ID.String(),
		"amount", p.Amount.String(),
	)
}

// OnPaymentRejected implements plugin.OnPaymentRejected.
func (e *Extension) OnPaymentRejected(ctx context.Context, in payment.Input, cause error) error {
	return e.record(ctx, ActionPaymentRejected, SeverityWarning, OutcomeFailure,
		ResourcePayment, "", "", CategoryPayment, cause,
		"invoice_id", in.InvoiceID.String(),
		"amount", in.Amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Expense hooks
// ──────────────────────────────────────────────────

// OnExpenseRecorded implements plugin.OnExpenseRecorded.
func (e *Extension) OnExpenseRecorded(ctx context.Context, exp *expense.Expense) error {
	return e.record(ctx, ActionExpenseRecorded, SeverityInfo, OutcomeSuccess,
		ResourceExpense, exp.ID.String(), exp.UserID, CategorySpending, nil,
		"label", exp.Label,
		"amount", exp.Amount.String(),
	)
}

// OnExpenseDeleted implements plugin.OnExpenseDeleted.
func (e *Extension) OnExpenseDeleted(ctx context.Context, expID id.ExpenseID) error {
	return e.record(ctx, ActionExpenseDeleted, SeverityWarning, OutcomeSuccess,
		ResourceExpense, expID.String(), "", CategorySpending, nil,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func invoiceMeta(inv *invoice.Invoice) []any {
	return []any{
		"number", inv.Number,
		"customer_id", inv.CustomerID.String(),
		"amount", inv.Amount.String(),
		"paid_amount", inv.PaidAmount.String(),
		"status", string(inv.Status()),
	}
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, userID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		UserID:     userID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
