package api

import (
	"net/http"
)

// GET /reports/dashboard?month=&year=
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	today := h.books.Reporter().Today()
	month, err := queryInt(r, "month", int(today.Month))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	year, err := queryInt(r, "year", today.Year)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	d, err := h.books.DashboardStats(r.Context(), userFrom(r), month, year)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GET /reports/expenses?period=
func (h *Handler) handleExpenseReport(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	rep, err := h.books.ExpenseReport(r.Context(), userFrom(r), period)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /reports/aging
func (h *Handler) handleAgingReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.books.AgingReport(r.Context(), userFrom(r))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /reports/top-customers?period=&n=
func (h *Handler) handleTopCustomers(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	n, err := queryInt(r, "n", 0)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	rep, err := h.books.TopCustomers(r.Context(), userFrom(r), period, n)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /reports/year?year=
func (h *Handler) handleYearSeries(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", h.books.Reporter().Today().Year)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	series, err := h.books.YearSeries(r.Context(), userFrom(r), year)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}
