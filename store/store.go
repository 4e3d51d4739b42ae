// Package store defines the storage contract every bookkeeping backend
// implements. The engine depends only on this interface.
package store

import (
	"context"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/payment"
)

// Store is the unified storage interface for all bookkeeping entities.
type Store interface {
	customer.Store
	invoice.Store
	payment.Store
	expense.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
