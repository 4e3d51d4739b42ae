package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/id"
	"github.com/xraph/bookkeeper/report"
	"github.com/xraph/bookkeeper/types"
)

// maxBodyBytes bounds JSON and CSV request bodies.
const maxBodyBytes = 4 << 20

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// writeEngineError maps engine errors to HTTP responses.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case bookkeeper.IsValidation(err):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case bookkeeper.IsNotFound(err):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case bookkeeper.IsConflict(err):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "internal error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return false
	}
	return true
}

// parseID extracts the {id} path parameter and checks its prefix.
func parseID(w http.ResponseWriter, r *http.Request, parse func(string) (id.ID, error)) (id.ID, bool) {
	raw := chi.URLParam(r, "id")
	parsed, err := parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid id: "+raw)
		return id.Nil, false
	}
	return parsed, true
}

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination extracts limit and offset from query params. Without a
// limit every row is returned.
func parsePagination(r *http.Request) Pagination {
	var p Pagination
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = min(n, 500)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Offset = n
		}
	}
	return p
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (types.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return types.Date{}, nil
	}
	d, err := types.ParseDate(v)
	if err != nil {
		return types.Date{}, bookkeeper.ValidationError{Field: name, Message: "must be YYYY-MM-DD"}
	}
	return d, nil
}

// queryInt parses an optional integer query parameter, returning def when
// it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, bookkeeper.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

func queryPeriod(r *http.Request) (report.Period, error) {
	p, err := report.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		return "", bookkeeper.ValidationError{Field: "period", Message: `must be "monthly" or "yearly"`}
	}
	return p, nil
}

// money parses a decimal amount in major units of the books' currency.
func (h *Handler) money(field, s string) (types.Money, error) {
	m, err := types.ParseMoney(s, h.books.Currency())
	if err != nil {
		return types.Money{}, bookkeeper.ValidationError{Field: field, Message: err.Error()}
	}
	return m, nil
}

// notOwned reports a record of another user as missing.
func notOwned(kind string, recordID fmt.Stringer) error {
	return fmt.Errorf("%w: %s %s", bookkeeper.ErrNotFound, kind, recordID)
}
