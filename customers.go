package bookkeeper

import (
	"context"
	"strings"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/types"
)

// ──────────────────────────────────────────────────
// Customer Management
// ──────────────────────────────────────────────────

// CreateCustomer creates a customer for in.UserID.
func (b *Bookkeeper) CreateCustomer(ctx context.Context, in customer.Input) (*customer.Customer, error) {
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "is required"}
	}

	c := &customer.Customer{
		Entity:  types.NewEntity(),
		ID:      id.NewCustomerID(),
		UserID:  in.UserID,
		Name:    name,
		Phone:   strings.TrimSpace(in.Phone),
		Email:   strings.TrimSpace(in.Email),
		Address: strings.TrimSpace(in.Address),
	}

	if err := b.store.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}

	b.plugins.EmitCustomerCreated(ctx, c)
	return c, nil
}

// GetCustomer retrieves a customer by ID.
func (b *Bookkeeper) GetCustomer(ctx context.Context, custID id.CustomerID) (*customer.Customer, error) {
	return b.store.GetCustomer(ctx, custID)
}

// ListCustomers lists a user's customers ordered by name.
func (b *Bookkeeper) ListCustomers(ctx context.Context, userID string, opts customer.ListOpts) ([]*customer.Customer, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return b.store.ListCustomers(ctx, userID, opts)
}

// UpdateCustomer applies patch to a customer.
func (b *Bookkeeper) UpdateCustomer(ctx context.Context, custID id.CustomerID, patch customer.Patch) (*customer.Customer, error) {
	c, err := b.store.GetCustomer(ctx, custID)
	if err != nil {
		return nil, err
	}

	patch.Apply(c)
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, ValidationError{Field: "name", Message: "is required"}
	}
	c.Touch()

	if err := b.store.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCustomer deletes a customer. Customers that still have invoices
// are refused with a ConflictError wrapping ErrCustomerInUse.
func (b *Bookkeeper) DeleteCustomer(ctx context.Context, custID id.CustomerID) error {
	c, err := b.store.GetCustomer(ctx, custID)
	if err != nil {
		return err
	}

	invoices, err := b.store.ListInvoices(ctx, c.UserID, invoice.ListOpts{CustomerID: custID, Limit: 1})
	if err != nil {
		return err
	}
	if len(invoices) > 0 {
		return ConflictError{
			Resource: "customer",
			ID:       custID.String(),
			Reason:   "customer still has invoices",
			Err:      ErrCustomerInUse,
		}
	}

	if err := b.store.DeleteCustomer(ctx, custID); err != nil {
		return err
	}

	b.plugins.EmitCustomerDeleted(ctx, custID)
	return nil
}
