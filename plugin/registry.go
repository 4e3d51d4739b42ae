package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
)

// DefaultTimeout bounds every plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so dispatch never type-switches.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onCustomerCreated []OnCustomerCreated
	onCustomerDeleted []OnCustomerDeleted
	onInvoiceCreated  []OnInvoiceCreated
	onInvoiceUpdated  []OnInvoiceUpdated
	onInvoiceDeleted  []OnInvoiceDeleted
	onInvoicePaid     []OnInvoicePaid
	onPaymentRecorded []OnPaymentRecorded
	onPaymentDeleted  []OnPaymentDeleted
	onPaymentRejected []OnPaymentRejected
	onExpenseRecorded []OnExpenseRecorded
	onExpenseDeleted  []OnExpenseDeleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnCustomerCreated); ok {
		r.onCustomerCreated = append(r.onCustomerCreated, v)
	}
	if v, ok := p.(OnCustomerDeleted); ok {
		r.onCustomerDeleted = append(r.onCustomerDeleted, v)
	}
	if v, ok := p.(OnInvoiceCreated); ok {
		r.onInvoiceCreated = append(r.onInvoiceCreated, v)
	}
	if v, ok := p.(OnInvoiceUpdated); ok {
		r.onInvoiceUpdated = append(r.onInvoiceUpdated, v)
	}
	if v, ok := p.(OnInvoiceDeleted); ok {
		r.onInvoiceDeleted = append(r.onInvoiceDeleted, v)
	}
	if v, ok := p.(OnInvoicePaid); ok {
		r.onInvoicePaid = append(r.onInvoicePaid, v)
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnPaymentDeleted); ok {
		r.onPaymentDeleted = append(r.onPaymentDeleted, v)
	}
	if v, ok := p.(OnPaymentRejected); ok {
		r.onPaymentRejected = append(r.onPaymentRejected, v)
	}
	if v, ok := p.(OnExpenseRecorded); ok {
		r.onExpenseRecorded = append(r.onExpenseRecorded, v)
	}
	if v, ok := p.(OnExpenseDeleted); ok {
		r.onExpenseDeleted = append(r.onExpenseDeleted, v)
	}

	r.logger.Debug("plugin registered",
		"plugin", p.Name(),
		"hooks", r.implementedHooks(p),
	)

	return nil
}

// implementedHooks lists the hook interfaces p implements.
func (r *Registry) implementedHooks(p Plugin) []string {
	var hooks []string
	v := reflect.TypeOf(p)

	check := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			hooks = append(hooks, name)
		}
	}

	check(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	check(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	check(reflect.TypeOf((*OnCustomerCreated)(nil)).Elem(), "OnCustomerCreated")
	check(reflect.TypeOf((*OnCustomerDeleted)(nil)).Elem(), "OnCustomerDeleted")
	check(reflect.TypeOf((*OnInvoiceCreated)(nil)).Elem(), "OnInvoiceCreated")
	check(reflect.TypeOf((*OnInvoiceUpdated)(nil)).Elem(), "OnInvoiceUpdated")
	check(reflect.TypeOf((*OnInvoiceDeleted)(nil)).Elem(), "OnInvoiceDeleted")
	check(reflect.TypeOf((*OnInvoicePaid)(nil)).Elem(), "OnInvoicePaid")
	check(reflect.TypeOf((*OnPaymentRecorded)(nil)).Elem(), "OnPaymentRecorded")
	check(reflect.TypeOf((*OnPaymentDeleted)(nil)).Elem(), "OnPaymentDeleted")
	check(reflect.TypeOf((*OnPaymentRejected)(nil)).Elem(), "OnPaymentRejected")
	check(reflect.TypeOf((*OnExpenseRecorded)(nil)).Elem(), "OnExpenseRecorded")
	check(reflect.TypeOf((*OnExpenseDeleted)(nil)).Elem(), "OnExpenseDeleted")

	return hooks
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	emit(r, ctx, "OnInit", snapshot(r, func() []OnInit { return r.onInit }), func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(r, ctx, "OnShutdown", snapshot(r, func() []OnShutdown { return r.onShutdown }), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitCustomerCreated emits a customer created event.
func (r *Registry) EmitCustomerCreated(ctx context.Context, c *customer.Customer) {
	emit(r, ctx, "OnCustomerCreated", snapshot(r, func() []OnCustomerCreated { return r.onCustomerCreated }), func(p OnCustomerCreated) error {
		return p.OnCustomerCreated(ctx, c)
	})
}

// EmitCustomerDeleted emits a customer deleted event.
func (r *Registry) EmitCustomerDeleted(ctx context.Context, custID id.CustomerID) {
	emit(r, ctx, "OnCustomerDeleted", snapshot(r, func() []OnCustomerDeleted { return r.onCustomerDeleted }), func(p OnCustomerDeleted) error {
		return p.OnCustomerDeleted(ctx, custID)
	})
}

// EmitInvoiceCreated emits an invoice created event.
func (r *Registry) EmitInvoiceCreated(ctx context.Context, inv *invoice.Invoice) {
	emit(r, ctx, "OnInvoiceCreated", snapshot(r, func() []OnInvoiceCreated { return r.onInvoiceCreated }), func(p OnInvoiceCreated) error {
		return p.OnInvoiceCreated(ctx, inv)
	})
}

// EmitInvoiceUpdated emits an invoice updated event.
func (r *Registry) EmitInvoiceUpdated(ctx context.Context, inv *invoice.Invoice) {
	emit(r, ctx, "OnInvoiceUpdated", snapshot(r, func() []OnInvoiceUpdated { return r.onInvoiceUpdated }), func(p OnInvoiceUpdated) error {
		return p.OnInvoiceUpdated(ctx, inv)
	})
}

// EmitInvoiceDeleted emits an invoice deleted event.
func (r *Registry) EmitInvoiceDeleted(ctx context.Context, inv *invoice.Invoice) {
	emit(r, ctx, "OnInvoiceDeleted", snapshot(r, func() []OnInvoiceDeleted { return r.onInvoiceDeleted }), func(p OnInvoiceDeleted) error {
		return p.OnInvoiceDeleted(ctx, inv)
	})
}

// EmitInvoicePaid emits an invoice paid event.
func (r *Registry) EmitInvoicePaid(ctx context.Context, inv *invoice.Invoice) {
	emit(r, ctx, "OnInvoicePaid", snapshot(r, func() []OnInvoicePaid { return r.onInvoicePaid }), func(p OnInvoicePaid) error {
		return p.OnInvoicePaid(ctx, inv)
	})
}

// EmitPaymentRecorded emits a payment recorded event.
func (r *Registry) EmitPaymentRecorded(ctx context.Context, pay *payment.Payment, inv *invoice.Invoice) {
	emit(r, ctx, "OnPaymentRecorded", snapshot(r, func() []OnPaymentRecorded { return r.onPaymentRecorded }), func(p OnPaymentRecorded) error {
		return p.OnPaymentRecorded(ctx, pay, inv)
	})
}

// EmitPaymentDeleted emits a payment deleted event.
func (r *Registry) EmitPaymentDeleted(ctx context.Context, pay *payment.Payment, inv *invoice.Invoice) {
	emit(r, ctx, "OnPaymentDeleted", snapshot(r, func() []OnPaymentDeleted { return r.onPaymentDeleted }), func(p OnPaymentDeleted) error {
		return p.OnPaymentDeleted(ctx, pay, inv)
	})
}

// EmitPaymentRejected emits a payment rejected event.
func (r *Registry) EmitPaymentRejected(ctx context.Context, in payment.Input, cause error) {
	emit(r, ctx, "OnPaymentRejected", snapshot(r, func() []OnPaymentRejected { return r.onPaymentRejected }), func(p OnPaymentRejected) error {
		return p.OnPaymentRejected(ctx, in, cause)
	})
}

// EmitExpenseRecorded emits an expense recorded event.
func (r *Registry) EmitExpenseRecorded(ctx context.Context, e *expense.Expense) {
	emit(r, ctx, "OnExpenseRecorded", snapshot(r, func() []OnExpenseRecorded { return r.onExpenseRecorded }), func(p OnExpenseRecorded) error {
		return p.OnExpenseRecorded(ctx, e)
	})
}

// EmitExpenseDeleted emits an expense deleted event.
func (r *Registry) EmitExpenseDeleted(ctx context.Context, expID id.ExpenseID) {
	emit(r, ctx, "OnExpenseDeleted", snapshot(r, func() []OnExpenseDeleted { return r.onExpenseDeleted }), func(p OnExpenseDeleted) error {
		return p.OnExpenseDeleted(ctx, expID)
	})
}

// snapshot reads a cached hook list under the read lock.
func snapshot[T any](r *Registry, get func() []T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return get()
}

// emit dispatches one hook to every plugin in hooks. Failures are logged
// and never propagate to the caller.
func emit[T Plugin](r *Registry, ctx context.Context, hook string, hooks []T, call func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return call(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the reconciliation pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
