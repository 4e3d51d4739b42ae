// Package expense defines business expenses. The free-text label doubles as
// the category key in reports.
package expense

import (
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/types"
)

// Expense is money spent by the owning user.
type Expense struct {
	types.Entity
	ID     id.ExpenseID `json:"id"`
	UserID string       `json:"user_id"`
	Label  string       `json:"label"`
	Amount types.Money  `json:"amount"`
	Date   types.Date   `json:"date"`
}

// Input carries the fields accepted when recording an expense.
type Input struct {
	UserID string      `json:"user_id"`
	Label  string      `json:"label"`
	Amount types.Money `json:"amount"`
	Date   types.Date  `json:"date"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Label  *string      `json:"label,omitempty"`
	Amount *types.Money `json:"amount,omitempty"`
	Date   *types.Date  `json:"date,omitempty"`
}

// Apply copies the non-nil fields of p onto e.
func (p Patch) Apply(e *Expense) {
	if p.Label != nil {
		e.Label = *p.Label
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
}
