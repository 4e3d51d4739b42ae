// Package api exposes the bookkeeper engine over HTTP as a chi router.
//
// Every request names its owning user in the X-User-ID header; records
// owned by another user are reported as not found.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xraph/bookkeeper"
)

// UserHeader carries the ID of the user a request acts for.
const UserHeader = "X-User-ID"

// Handler serves the bookkeeper HTTP API.
type Handler struct {
	books  *bookkeeper.Bookkeeper
	logger *slog.Logger
	router chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New builds the router for b.
func New(b *bookkeeper.Bookkeeper, opts ...Option) *Handler {
	h := &Handler{books: b, logger: b.Logger()}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.routes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.handleListCustomers)
			r.Post("/", h.handleCreateCustomer)
			r.Get("/{id}", h.handleGetCustomer)
			r.Patch("/{id}", h.handleUpdateCustomer)
			r.Delete("/{id}", h.handleDeleteCustomer)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.handleListInvoices)
			r.Post("/", h.handleCreateInvoice)
			r.Get("/{id}", h.handleGetInvoice)
			r.Patch("/{id}", h.handleUpdateInvoice)
			r.Delete("/{id}", h.handleDeleteInvoice)
			r.Post("/{id}/mark-paid", h.handleMarkPaid)
			r.Post("/{id}/mark-unpaid", h.handleMarkUnpaid)
			r.Get("/{id}/payments", h.handleListPayments)
			r.Post("/{id}/payments", h.handleAddPayment)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/{id}", h.handleGetPayment)
			r.Delete("/{id}", h.handleDeletePayment)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.handleListExpenses)
			r.Post("/", h.handleCreateExpense)
			r.Get("/{id}", h.handleGetExpense)
			r.Patch("/{id}", h.handleUpdateExpense)
			r.Delete("/{id}", h.handleDeleteExpense)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", h.handleDashboard)
			r.Get("/expenses", h.handleExpenseReport)
			r.Get("/aging", h.handleAgingReport)
			r.Get("/top-customers", h.handleTopCustomers)
			r.Get("/year", h.handleYearSeries)
		})

		r.Get("/export/{file}", h.handleExport)
		r.Post("/import/{kind}", h.handleImport)
		r.Get("/charts/{name}", h.handleChart)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.books.Store().Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
