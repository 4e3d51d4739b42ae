package api

import (
	"context"
	"net/http"

	"github.com/xraph/bookkeeper/expense"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/types"
)

type expenseRequest struct {
	Label  string     `json:"label"`
	Amount string     `json:"amount"`
	Date   types.Date `json:"date"`
}

type expensePatchRequest struct {
	Label  *string     `json:"label"`
	Amount *string     `json:"amount"`
	Date   *types.Date `json:"date"`
}

func (h *Handler) ownedExpense(ctx context.Context, userID string, expID id.ExpenseID) (*expense.Expense, error) {
	e, err := h.books.GetExpense(ctx, expID)
	if err != nil {
		return nil, err
	}
	if e.UserID != userID {
		return nil, notOwned("expense", expID)
	}
	return e, nil
}

// GET /expenses
func (h *Handler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	opts := expense.ListOpts{Label: r.URL.Query().Get("label"), Limit: p.Limit, Offset: p.Offset}
	var err error
	if opts.From, err = queryDate(r, "from"); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if opts.To, err = queryDate(r, "to"); err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	list, err := h.books.ListExpenses(r.Context(), userFrom(r), opts)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /expenses
func (h *Handler) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := h.money("amount", req.Amount)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	e, err := h.books.CreateExpense(r.Context(), expense.Input{
		UserID: userFrom(r),
		Label:  req.Label,
		Amount: amount,
		Date:   req.Date,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// GET /expenses/{id}
func (h *Handler) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expID, ok := parseID(w, r, id.ParseExpenseID)
	if !ok {
		return
	}
	e, err := h.ownedExpense(r.Context(), userFrom(r), expID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// PATCH /expenses/{id}
func (h *Handler) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	expID, ok := parseID(w, r, id.ParseExpenseID)
	if !ok {
		return
	}
	var req expensePatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch := expense.Patch{Label: req.Label, Date: req.Date}
	if req.Amount != nil {
		amount, err := h.money("amount", *req.Amount)
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		patch.Amount = &amount
	}

	if _, err := h.ownedExpense(r.Context(), userFrom(r), expID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	e, err := h.books.UpdateExpense(r.Context(), expID, patch)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DELETE /expenses/{id}
func (h *Handler) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expID, ok := parseID(w, r, id.ParseExpenseID)
	if !ok {
		return
	}
	if _, err := h.ownedExpense(r.Context(), userFrom(r), expID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if err := h.books.DeleteExpense(r.Context(), expID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
