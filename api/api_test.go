package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bookkeeper"
	"github.com/xraph/bookkeeper/api"
	"github.com/xraph/bookkeeper/report"
	"github.com/xraph/bookkeeper/store/memory"
)

const user = "user_1"

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func newClient(t *testing.T) *client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := bookkeeper.New(memory.New(),
		bookkeeper.WithCurrency("try"),
		bookkeeper.WithClock(report.FixedClock(time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC))),
		bookkeeper.WithLocation(time.UTC),
		bookkeeper.WithLogger(logger),
	)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Stop() })

	srv := httptest.NewServer(api.New(b, api.WithLogger(logger)))
	t.Cleanup(srv.Close)
	return &client{t: t, srv: srv}
}

func (c *client) do(method, path, userID string, body any) (*http.Response, []byte) {
	c.t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.srv.URL+path, rdr)
	require.NoError(c.t, err)
	if userID != "" {
		req.Header.Set(api.UserHeader, userID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *client) json(method, path string, body any, wantStatus int) map[string]any {
	c.t.Helper()
	resp, data := c.do(method, path, user, body)
	require.Equal(c.t, wantStatus, resp.StatusCode, string(data))
	var out map[string]any
	if len(data) > 0 && data[0] == '{' {
		require.NoError(c.t, json.Unmarshal(data, &out))
	}
	return out
}

func (c *client) customer() string {
	c.t.Helper()
	out := c.json(http.MethodPost, "/customers", map[string]any{"name": "Acme"}, http.StatusCreated)
	return out["id"].(string)
}

func (c *client) invoice(custID, amount string) string {
	c.t.Helper()
	out := c.json(http.MethodPost, "/invoices", map[string]any{
		"customer_id": custID,
		"amount":      amount,
		"date":        "2024-03-01",
	}, http.StatusCreated)
	return out["id"].(string)
}

func amountOf(v any) float64 {
	return v.(map[string]any)["amount"].(float64)
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	resp, body := c.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestMissingUserHeader(t *testing.T) {
	c := newClient(t)
	resp, body := c.do(http.MethodGet, "/customers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "MISSING_USER")
}

func TestInvoicePaymentFlow(t *testing.T) {
	c := newClient(t)
	custID := c.customer()
	invID := c.invoice(custID, "1000")

	c.json(http.MethodPost, "/invoices/"+invID+"/payments", map[string]any{"amount": "400"}, http.StatusCreated)

	inv := c.json(http.MethodGet, "/invoices/"+invID, nil, http.StatusOK)
	assert.Equal(t, "FAT000001", inv["invoice_number"])
	assert.Equal(t, "partial", inv["status"])
	assert.Equal(t, float64(40000), amountOf(inv["paid_amount"]))
	assert.Equal(t, float64(60000), amountOf(inv["remaining"]))

	out := c.json(http.MethodPost, "/invoices/"+invID+"/payments", map[string]any{"amount": "800"}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])

	c.json(http.MethodPost, "/invoices/"+invID+"/payments", map[string]any{"amount": "600"}, http.StatusCreated)
	inv = c.json(http.MethodGet, "/invoices/"+invID, nil, http.StatusOK)
	assert.Equal(t, true, inv["paid"])

	inv = c.json(http.MethodPost, "/invoices/"+invID+"/mark-unpaid", nil, http.StatusOK)
	assert.Equal(t, "unpaid", inv["status"])

	resp, body := c.do(http.MethodGet, "/invoices/"+invID+"/payments", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	inv = c.json(http.MethodPost, "/invoices/"+invID+"/mark-paid", map[string]any{"date": "2024-03-10"}, http.StatusOK)
	assert.Equal(t, "paid", inv["status"])
}

func TestDeletePaymentReopensInvoice(t *testing.T) {
	c := newClient(t)
	invID := c.invoice(c.customer(), "500")
	p := c.json(http.MethodPost, "/invoices/"+invID+"/payments", map[string]any{"amount": "500"}, http.StatusCreated)

	c.json(http.MethodDelete, "/payments/"+p["id"].(string), nil, http.StatusNoContent)

	inv := c.json(http.MethodGet, "/invoices/"+invID, nil, http.StatusOK)
	assert.Equal(t, false, inv["paid"])
	assert.Equal(t, float64(0), amountOf(inv["paid_amount"]))
}

func TestOtherUsersRecordsAreHidden(t *testing.T) {
	c := newClient(t)
	invID := c.invoice(c.customer(), "100")

	resp, body := c.do(http.MethodGet, "/invoices/"+invID, "someone_else", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")

	resp, _ = c.do(http.MethodDelete, "/invoices/"+invID, "someone_else", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	c := newClient(t)
	custID := c.customer()
	c.invoice(custID, "100")

	out := c.json(http.MethodDelete, "/customers/"+custID, nil, http.StatusConflict)
	assert.Equal(t, "CONFLICT", out["code"])

	out = c.json(http.MethodGet, "/invoices/not-an-id", nil, http.StatusBadRequest)
	assert.Equal(t, "INVALID_ID", out["code"])

	out = c.json(http.MethodPost, "/invoices", map[string]any{"customer_id": custID, "amount": "-5"}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])

	out = c.json(http.MethodPost, "/expenses", `{"label":"Kira","bogus":1}`, http.StatusBadRequest)
	assert.Equal(t, "INVALID_BODY", out["code"])

	out = c.json(http.MethodGet, "/reports/expenses?period=weekly", nil, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])

	out = c.json(http.MethodGet, "/reports/dashboard?month=13", nil, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])
}

func TestListInvoiceFilters(t *testing.T) {
	c := newClient(t)
	custID := c.customer()
	paidID := c.invoice(custID, "100")
	c.invoice(custID, "200")
	c.json(http.MethodPost, "/invoices/"+paidID+"/mark-paid", nil, http.StatusOK)

	resp, body := c.do(http.MethodGet, "/invoices?status=unpaid", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "FAT000002", list[0]["invoice_number"])

	out := c.json(http.MethodGet, "/invoices?status=overdue", nil, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])
}

func TestReports(t *testing.T) {
	c := newClient(t)
	invID := c.invoice(c.customer(), "5000")
	c.json(http.MethodPost, "/invoices/"+invID+"/payments", map[string]any{"amount": "3000"}, http.StatusCreated)
	c.json(http.MethodPost, "/expenses", map[string]any{"label": "Kira", "amount": "1200", "date": "2024-03-02"}, http.StatusCreated)

	d := c.json(http.MethodGet, "/reports/dashboard", nil, http.StatusOK)
	monthly := d["monthly"].(map[string]any)
	assert.Equal(t, float64(500000), amountOf(monthly["invoice_total"]))
	assert.Equal(t, float64(300000), amountOf(monthly["payments_received"]))
	assert.Equal(t, float64(380000), amountOf(monthly["profit_loss"]))
	assert.Equal(t, float64(200000), amountOf(d["pending_amount"]))

	aging := c.json(http.MethodGet, "/reports/aging", nil, http.StatusOK)
	assert.Equal(t, float64(1), aging["count"])

	top := c.json(http.MethodGet, "/reports/top-customers?period=yearly", nil, http.StatusOK)
	require.Len(t, top["customers"], 1)
}

func TestExportImportAndCharts(t *testing.T) {
	c := newClient(t)

	resp, body := c.do(http.MethodPost, "/import/customers", user, "name,email\nAcme,a@acme.test\n,\n")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res map[string]any
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, float64(1), res["imported"])
	assert.Equal(t, float64(2), res["total"])

	resp, body = c.do(http.MethodGet, "/export/customers.csv", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="customers.csv"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, string(body), "Acme")

	resp, _ = c.do(http.MethodGet, "/export/reports.xlsx", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))

	resp, _ = c.do(http.MethodGet, "/export/users.csv", user, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = c.do(http.MethodGet, "/charts/aging", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<html")
}
