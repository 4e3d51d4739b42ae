package api

import (
	"net/http"

	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/payment"
	"github.com/xraph/bookkeeper/types"
)

type paymentRequest struct {
	Amount      string     `json:"amount"`
	PaymentDate types.Date `json:"payment_date"`
	Notes       string     `json:"notes"`
}

// GET /invoices/{id}/payments
func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	invID, ok := parseID(w, r, id.ParseInvoiceID)
	if !ok {
		return
	}
	if _, err := h.ownedInvoice(r.Context(), userFrom(r), invID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	list, err := h.books.ListPayments(r.Context(), invID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /invoices/{id}/payments
func (h *Handler) handleAddPayment(w http.ResponseWriter, r *http.Request) {
	invID, ok := parseID(w, r, id.ParseInvoiceID)
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := h.money("amount", req.Amount)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if _, err := h.ownedInvoice(r.Context(), userFrom(r), invID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	p, err := h.books.AddPayment(r.Context(), payment.Input{
		InvoiceID:   invID,
		Amount:      amount,
		PaymentDate: req.PaymentDate,
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ownedPayment loads a payment and checks its invoice belongs to the caller.
func (h *Handler) ownedPayment(w http.ResponseWriter, r *http.Request) (*payment.Payment, bool) {
	payID, ok := parseID(w, r, id.ParsePaymentID)
	if !ok {
		return nil, false
	}
	p, err := h.books.GetPayment(r.Context(), payID)
	if err == nil {
		_, err = h.ownedInvoice(r.Context(), userFrom(r), p.InvoiceID)
	}
	if err != nil {
		h.writeEngineError(w, r, err)
		return nil, false
	}
	return p, true
}

// GET /payments/{id}
func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPayment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /payments/{id}
func (h *Handler) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPayment(w, r)
	if !ok {
		return
	}
	if err := h.books.DeletePayment(r.Context(), p.ID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
