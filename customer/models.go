// Package customer defines the customers invoices are issued to.
package customer

import (
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/types"
)

// Customer is a party the owning user bills.
type Customer struct {
	types.Entity
	ID      id.CustomerID `json:"id"`
	UserID  string        `json:"user_id"`
	Name    string        `json:"name"`
	Phone   string        `json:"phone,omitempty"`
	Email   string        `json:"email,omitempty"`
	Address string        `json:"address,omitempty"`
}

// Input carries the fields accepted when creating a customer.
type Input struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Apply copies the non-nil fields of p onto c.
func (p Patch) Apply(c *Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
}
