package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/bookkeeper/store"
	"github.com/xraph/bookkeeper/store/postgres"
	"github.com/xraph/bookkeeper/store/storetest"
)

// The suite needs a disposable database; point BOOKKEEPER_TEST_POSTGRES_DSN at one.
func TestConformance(t *testing.T) {
	dsn := os.Getenv("BOOKKEEPER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BOOKKEEPER_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := postgres.Open(ctx, dsn, 4)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		require.NoError(t, s.Migrate(ctx))
		_, err = pgdriver.Unwrap(s.DB()).NewRaw(`TRUNCATE bookkeeper_payments, bookkeeper_invoices,
			bookkeeper_customers, bookkeeper_expenses, bookkeeper_invoice_sequences`).Exec(ctx)
		require.NoError(t, err)
		return s
	})
}
