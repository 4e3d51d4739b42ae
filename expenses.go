package bookkeeper

import (
	"context"
	"strings"

	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/types"
)

// ──────────────────────────────────────────────────
// Expense Management
// ──────────────────────────────────────────────────

// CreateExpense records an expense. A zero date is read as today.
func (b *Bookkeeper) CreateExpense(ctx context.Context, in expense.Input) (*expense.Expense, error) {
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}
	amount, err := b.amount("amount", in.Amount)
	if err != nil {
		return nil, err
	}

	e := &expense.Expense{
		Entity: types.NewEntity(),
		ID:     id.NewExpenseID(),
		UserID: in.UserID,
		Label:  strings.TrimSpace(in.Label),
		Amount: amount,
		Date:   b.dateOrToday(in.Date),
	}

	if err := b.store.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	b.plugins.EmitExpenseRecorded(ctx, e)
	return e, nil
}

// GetExpense retrieves an expense by ID.
func (b *Bookkeeper) GetExpense(ctx context.Context, expID id.ExpenseID) (*expense.Expense, error) {
	return b.store.GetExpense(ctx, expID)
}

// ListExpenses lists a user's expenses, newest first.
func (b *Bookkeeper) ListExpenses(ctx context.Context, userID string, opts expense.ListOpts) ([]*expense.Expense, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return b.store.ListExpenses(ctx, userID, opts)
}

// UpdateExpense applies patch to an expense.
func (b *Bookkeeper) UpdateExpense(ctx context.Context, expID id.ExpenseID, patch expense.Patch) (*expense.Expense, error) {
	e, err := b.store.GetExpense(ctx, expID)
	if err != nil {
		return nil, err
	}

	if patch.Amount != nil {
		amount, err := b.amount("amount", *patch.Amount)
		if err != nil {
			return nil, err
		}
		patch.Amount = &amount
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return nil, ValidationError{Field: "date", Message: "is required"}
	}

	patch.Apply(e)
	e.Label = strings.TrimSpace(e.Label)
	e.Touch()

	if err := b.store.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteExpense deletes an expense.
func (b *Bookkeeper) DeleteExpense(ctx context.Context, expID id.ExpenseID) error {
	if err := b.store.DeleteExpense(ctx, expID); err != nil {
		return err
	}

	b.plugins.EmitExpenseDeleted(ctx, expID)
	return nil
}
