package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/types"
)

func (s *Store) lockCount() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func TestInvoiceLocksAreReleased(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		inv := &invoice.Invoice{
			Entity:     types.NewEntity(),
			ID:         id.NewInvoiceID(),
			Number:     invoice.FormatNumber(i),
			Sequence:   i,
			UserID:     "u1",
			CustomerID: id.NewCustomerID(),
			Amount:     types.TRY(100000),
			PaidAmount: types.Zero("try"),
			Date:       types.MustParseDate("2024-03-01"),
		}
		require.NoError(t, s.CreateInvoice(ctx, inv))
		require.NoError(t, s.Reconcile(ctx, inv.ID, func(invoice.Tx) error { return nil }))
		require.NoError(t, s.DeleteInvoice(ctx, inv.ID))
	}
	assert.Zero(t, s.lockCount())

	err := s.Reconcile(ctx, id.NewInvoiceID(), func(invoice.Tx) error { return nil })
	assert.ErrorIs(t, err, bookkeeper.ErrInvoiceNotFound)
	assert.Zero(t, s.lockCount())
}
