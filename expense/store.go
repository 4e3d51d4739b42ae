package expense

import (
	"context"

	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/types"
)

// Store persists expenses.
type Store interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, expID id.ExpenseID) (*Expense, error)
	ListExpenses(ctx context.Context, userID string, opts ListOpts) ([]*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	DeleteExpense(ctx context.Context, expID id.ExpenseID) error
}

// ListOpts filters and pages expense listings. Results are ordered by date,
// newest first.
type ListOpts struct {
	Label  string
	From   types.Date
	To     types.Date
	Limit  int
	Offset int
}

// Matches reports whether e passes the filters in opts.
func (o ListOpts) Matches(e *Expense) bool {
	if o.Label != "" && e.Label != o.Label {
		return false
	}
	if !o.From.IsZero() && e.Date.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && e.Date.After(o.To) {
		return false
	}
	return true
}
