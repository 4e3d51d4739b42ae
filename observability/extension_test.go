package observability_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/observability"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/store/memory"
	"github.com/xraph/bookkeeper/types"
)

type fakeFactory struct {
	mu       sync.Mutex
	counts   map[string]int
	observed map[string][]float64
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{counts: map[string]int{}, observed: map[string][]float64{}}
}

type fakeCounter struct {
	f    *fakeFactory
	name string
}

func (c fakeCounter) Inc() {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.counts[c.name]++
}

type fakeHistogram struct {
	f    *fakeFactory
	name string
}

func (h fakeHistogram) Observe(v float64) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	h.f.observed[h.name] = append(h.f.observed[h.name], v)
}

func (f *fakeFactory) Counter(name string) observability.Counter {
	return fakeCounter{f: f, name: name}
}

func (f *fakeFactory) Histogram(name string) observability.Histogram {
	return fakeHistogram{f: f, name: name}
}

func TestMetricsExtensionCountsEngineEvents(t *testing.T) {
	ctx := context.Background()
	factory := newFakeFactory()

	b := bookkeeper.New(memory.New(),
		bookkeeper.WithCurrency("try"),
		bookkeeper.WithPlugin(observability.NewMetricsExtension(factory)),
	)
	require.NoError(t, b.Start(ctx))
	defer func() { _ = b.Stop() }()

	cust, err := b.CreateCustomer(ctx, customer.Input{UserID: "user_1", Name: "Acme"})
	require.NoError(t, err)

	inv, err := b.CreateInvoice(ctx, invoice.Input{UserID: "user_1", CustomerID: cust.ID, Amount: types.TRY(25000)})
	require.NoError(t, err)
	_, err = b.AddPayment(ctx, payment.Input{InvoiceID: inv.ID, Amount: types.TRY(5000)})
	require.NoError(t, err)
	_, err = b.AddPayment(ctx, payment.Input{InvoiceID: inv.ID, Amount: types.TRY(-1)})
	require.Error(t, err)

	_, err = b.MarkPaid(ctx, inv.ID, types.Date{})
	require.NoError(t, err)

	_, err = b.CreateExpense(ctx, expense.Input{UserID: "user_1", Label: "Rent", Amount: types.TRY(12000)})
	require.NoError(t, err)

	assert.Equal(t, 1, factory.counts["bookkeeper.customer.created"])
	assert.Equal(t, 1, factory.counts["bookkeeper.invoice.created"])
	assert.Equal(t, 1, factory.counts["bookkeeper.invoice.paid"])
	assert.Equal(t, 1, factory.counts["bookkeeper.payment.recorded"])
	assert.Equal(t, 1, factory.counts["bookkeeper.payment.rejected"])
	assert.Equal(t, 1, factory.counts["bookkeeper.expense.recorded"])

	assert.Equal(t, []float64{250}, factory.observed["bookkeeper.invoice.amount"])
	assert.Equal(t, []float64{50}, factory.observed["bookkeeper.payment.amount"])
	assert.Equal(t, []float64{120}, factory.observed["bookkeeper.expense.amount"])
}

func TestMetricsExtensionManualPayments(t *testing.T) {
	factory := newFakeFactory()
	m := observability.NewMetricsExtension(factory)

	require.NoError(t, m.OnPaymentRecorded(context.Background(),
		&payment.Payment{Amount: types.TRY(100), Manual: true},
		&invoice.Invoice{},
	))

	assert.Equal(t, 1, factory.counts["bookkeeper.payment.recorded"])
	assert.Equal(t, 1, factory.counts["bookkeeper.payment.manual"])
}
