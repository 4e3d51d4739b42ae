package api

import (
	"context"
	"net/http"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/invoice"
	"github.com/xraph/bookkeeper/types"
)

type invoiceRequest struct {
	CustomerID  string     `json:"customer_id"`
	Description string     `json:"description"`
	Amount      string     `json:"amount"`
	Date        types.Date `json:"date"`
	Paid        bool       `json:"paid"`
}

type invoicePatchRequest struct {
	CustomerID  *string     `json:"customer_id"`
	Description *string     `json:"description"`
	Amount      *string     `json:"amount"`
	Date        *types.Date `json:"date"`
	Paid        *bool       `json:"paid"`
}

type markPaidRequest struct {
	Date types.Date `json:"date"`
}

// invoiceView adds the derived status and balance to an invoice.
type invoiceView struct {
	*invoice.Invoice
	Status    invoice.Status `json:"status"`
	Remaining types.Money    `json:"remaining"`
}

func viewInvoice(inv *invoice.Invoice) invoiceView {
	return invoiceView{Invoice: inv, Status: inv.Status(), Remaining: inv.Remaining()}
}

// ownedInvoice loads an invoice and checks it belongs to the caller.
func (h *Handler) ownedInvoice(ctx context.Context, userID string, invID id.InvoiceID) (*invoice.Invoice, error) {
	inv, err := h.books.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, notOwned("invoice", invID)
	}
	return inv, nil
}

func parseCustomerRef(s string) (id.CustomerID, error) {
	custID, err := id.ParseCustomerID(s)
	if err != nil {
		return id.Nil, bookkeeper.ValidationError{Field: "customer_id", Message: "is not a customer id"}
	}
	return custID, nil
}

// GET /invoices
func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := parsePagination(r)
	opts := invoice.ListOpts{Limit: p.Limit, Offset: p.Offset}

	if s := q.Get("customer_id"); s != "" {
		custID, err := parseCustomerRef(s)
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		opts.CustomerID = custID
	}
	switch s := invoice.Status(q.Get("status")); s {
	case "", invoice.StatusPaid, invoice.StatusPartial, invoice.StatusUnpaid:
		opts.Status = s
	default:
		h.writeEngineError(w, r, bookkeeper.ValidationError{Field: "status", Message: "must be paid, partial or unpaid"})
		return
	}
	var err error
	if opts.From, err = queryDate(r, "from"); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if opts.To, err = queryDate(r, "to"); err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	list, err := h.books.ListInvoices(r.Context(), userFrom(r), opts)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	views := make([]invoiceView, 0, len(list))
	for _, inv := range list {
		views = append(views, viewInvoice(inv))
	}
	writeJSON(w, http.StatusOK, views)
}

// POST /invoices
func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	custID, err := parseCustomerRef(req.CustomerID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	amount, err := h.money("amount", req.Amount)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	inv, err := h.books.CreateInvoice(r.Context(), invoice.Input{
		UserID:       userFrom(r),
		CustomerID:   custID,
		Description:  req.Description,
		Amount:       amount,
		Date:         req.Date,
		ManuallyPaid: req.Paid,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewInvoice(inv))
}

// GET /invoices/{id}
func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := parseID(w, r, id.ParseInvoiceID)
	if !ok {
		return
	}
	inv, err := h.ownedInvoice(r.Context(), userFrom(r), invID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewInvoice(inv))
}

// PATCH /invoices/{id}
func (h *Handler) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := parseID(w, r, id.ParseInvoiceID)
	if !ok {
		return
	}
	var req invoicePatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := invoice.Patch{Description: req.Description, Date: req.Date, Paid: req.Paid}
	if req.CustomerID != nil {
		custID, err := parseCustomerRef(*req.CustomerID)
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		patch.CustomerID = &custID
	}
	if req.Amount != nil {
		amount, err := h.money("amount", *req.Amount)
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		patch.Amount = &amount
	}

	if _, err := h.ownedInvoice(r.Context(), userFrom(r), invID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	inv, err := h.books.UpdateInvoice(r.Context(), invID, patch)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewInvoice(inv))
}

// DELETE /invoices/{id}
func (h *Handler) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := parseID(w, r, id.ParseInvoiceID)
	if !ok {
		return
	}
	if _, err := h.ownedInvoice(r.Context(), userFrom(r), invID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if err := h.books.DeleteInvoice(r.Context(), invID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /invoices/{id}/mark-paid
func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	invID, ok := parseID(w, r, id.ParseInvoiceID)
	if !ok {
		return
	}
	var req markPaidRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.ownedInvoice(r.Context(), userFrom(r), invID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	inv, err := h.books.MarkPaid(r.Context(), invID, req.Date)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewInvoice(inv))
}

// POST /invoices/{id}/mark-unpaid
func (h *Handler) handleMarkUnpaid(w http.ResponseWriter, r *http.Request) {
	invID, ok := parseID(w, r, id.ParseInvoiceID)
	if !ok {
		return
	}
	if _, err := h.ownedInvoice(r.Context(), userFrom(r), invID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	inv, err := h.books.MarkUnpaid(r.Context(), invID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewInvoice(inv))
}
