package customer

import (
	"context"

	"github.com/xraph/bookkeeper/id"
)

// Store persists customers.
type Store interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, custID id.CustomerID) (*Customer, error)
	ListCustomers(ctx context.Context, userID string, opts ListOpts) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) error
	DeleteCustomer(ctx context.Context, custID id.CustomerID) error
}

// ListOpts filters and pages customer listings. Results are ordered by name.
type ListOpts struct {
	Limit  int
	Offset int
}
