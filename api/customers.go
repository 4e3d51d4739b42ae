package api

import (
	"context"
	"net/http"

	"github.com/xraph/bookkeeper/customer"
	"github.com/xraph/bookkeeper/id"
)

type customerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// ownedCustomer loads a customer and checks it belongs to the caller.
func (h *Handler) ownedCustomer(ctx context.Context, userID string, custID id.CustomerID) (*customer.Customer, error) {
	c, err := h.books.GetCustomer(ctx, custID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, notOwned("customer", custID)
	}
	return c, nil
}

// GET /customers
func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	list, err := h.books.ListCustomers(r.Context(), userFrom(r), customer.ListOpts{Limit: p.Limit, Offset: p.Offset})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /customers
func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.books.CreateCustomer(r.Context(), customer.Input{
		UserID:  userFrom(r),
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GET /customers/{id}
func (h *Handler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	custID, ok := parseID(w, r, id.ParseCustomerID)
	if !ok {
		return
	}
	c, err := h.ownedCustomer(r.Context(), userFrom(r), custID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PATCH /customers/{id}
func (h *Handler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	custID, ok := parseID(w, r, id.ParseCustomerID)
	if !ok {
		return
	}
	var patch customer.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if _, err := h.ownedCustomer(r.Context(), userFrom(r), custID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	c, err := h.books.UpdateCustomer(r.Context(), custID, patch)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DELETE /customers/{id}
func (h *Handler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	custID, ok := parseID(w, r, id.ParseCustomerID)
	if !ok {
		return
	}
	if _, err := h.ownedCustomer(r.Context(), userFrom(r), custID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if err := h.books.DeleteCustomer(r.Context(), custID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
