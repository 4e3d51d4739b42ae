package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookkeeper"
	audithook "github.com/xraph/bookkeeper/audit_hook"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/store/memory"
	"github.com/xraph/bookkeeper/types"
)

type captured struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (c *captured) Record(_ context.Context, evt *audithook.AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *captured) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Action)
	}
	return out
}

func (c *captured) find(action string) *audithook.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e.Action == action {
			return e
		}
	}
	return nil
}

func run(t *testing.T, ext *audithook.Extension) {
	t.Helper()
	ctx := context.Background()

	b := bookkeeper.New(memory.New(), bookkeeper.WithCurrency("try"), bookkeeper.WithPlugin(ext))
	require.NoError(t, b.Start(ctx))
	t.Cleanup(func() { _ = b.Stop() })

	cust, err := b.CreateCustomer(ctx, customer.Input{UserID: "user_1", Name: "Acme"})
	require.NoError(t, err)
	inv, err := b.CreateInvoice(ctx, invoice.Input{
		UserID:     "user_1",
		CustomerID: cust.ID,
		Amount:     types.TRY(10000),
	})
	require.NoError(t, err)

	_, err = b.AddPayment(ctx, payment.Input{InvoiceID: inv.ID, Amount: types.TRY(10000)})
	require.NoError(t, err)

	_, err = b.AddPayment(ctx, payment.Input{InvoiceID: inv.ID, Amount: types.TRY(1)})
	require.Error(t, err)
}

func TestExtensionRecordsLifecycle(t *testing.T) {
	rec := &captured{}
	run(t, audithook.New(rec))

	assert.Equal(t, []string{
		audithook.ActionCustomerCreated,
		audithook.ActionInvoiceCreated,
		audithook.ActionPaymentRecorded,
		audithook.ActionInvoicePaid,
		audithook.ActionPaymentRejected,
	}, rec.actions())

	paid := rec.find(audithook.ActionInvoicePaid)
	require.NotNil(t, paid)
	assert.Equal(t, "user_1", paid.UserID)
	assert.Equal(t, audithook.ResourceInvoice, paid.Resource)
	assert.Equal(t, "FAT000001", paid.Metadata["number"])
	assert.Equal(t, string(invoice.StatusPaid), paid.Metadata["status"])

	rejected := rec.find(audithook.ActionPaymentRejected)
	require.NotNil(t, rejected)
	assert.Equal(t, audithook.OutcomeFailure, rejected.Outcome)
	assert.NotEmpty(t, rejected.Reason)
}

func TestExtensionEnabledActions(t *testing.T) {
	rec := &captured{}
	run(t, audithook.New(rec, audithook.WithEnabledActions(audithook.ActionInvoicePaid)))

	assert.Equal(t, []string{audithook.ActionInvoicePaid}, rec.actions())
}

func TestExtensionDisabledActions(t *testing.T) {
	rec := &captured{}
	run(t, audithook.New(rec, audithook.WithDisabledActions(
		audithook.ActionCustomerCreated,
		audithook.ActionPaymentRejected,
	)))

	assert.Equal(t, []string{
		audithook.ActionInvoiceCreated,
		audithook.ActionPaymentRecorded,
		audithook.ActionInvoicePaid,
	}, rec.actions())
}

func TestExtensionSwallowsRecorderErrors(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))

	err := ext.OnInvoiceCreated(context.Background(), &invoice.Invoice{Number: "FAT000001"})
	assert.NoError(t, err)
}
