package api

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/bookkeeper/chart"
	"github.com/xraph/bookkeeper/export"
)

const reportsWorkbook = "reports.xlsx"

// GET /export/{kind}.csv and /export/reports.xlsx
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	userID := userFrom(r)
	var buf bytes.Buffer

	if file == reportsWorkbook {
		period, err := queryPeriod(r)
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		if err := export.WriteReports(r.Context(), &buf, h.books, userID, period); err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		attach(w, export.ContentTypeXLSX, reportsWorkbook, buf.Bytes())
		return
	}

	kind, err := export.ParseKind(strings.TrimSuffix(file, ".csv"))
	if err != nil || !strings.HasSuffix(file, ".csv") {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown export: "+file)
		return
	}
	if err := export.WriteCSV(r.Context(), &buf, h.books, userID, kind); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	attach(w, "text/csv; charset=utf-8", kind.Filename(), buf.Bytes())
}

func attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// POST /import/{kind}
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	kind, err := export.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	defer r.Body.Close()

	res, err := export.ImportCSV(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes), h.books, userFrom(r), kind)
	if err != nil {
		if errors.Is(err, export.ErrUnknownKind) || errors.Is(err, export.ErrMissingColumn) {
			writeError(w, http.StatusBadRequest, "INVALID_IMPORT", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /charts/{name}?period=&year=
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	name, err := chart.ParseName(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	period, err := queryPeriod(r)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(r.Context(), &buf, h.books, userFrom(r), name, chart.Params{Period: period, Year: year}); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
