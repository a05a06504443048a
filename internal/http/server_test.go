package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// memStore is an in-memory stand-in for the SQLite repository.
type memStore struct {
	statements map[string]core.Statement
	invoices   map[string]core.Invoice
	txs        map[string]core.Transaction
	payrolls   map[string]core.Payroll
	budgets    map[string]core.BudgetLine
	profile    core.FinancialProfile

	failInvoices bool
	pingErr      error
}

func newMemStore() *memStore {
	return &memStore{
		statements: map[string]core.Statement{},
		invoices:   map[string]core.Invoice{},
		txs:        map[string]core.Transaction{},
		payrolls:   map[string]core.Payroll{},
		budgets:    map[string]core.BudgetLine{},
		profile:    core.FinancialProfile{Currency: "EUR"},
	}
}

func (m *memStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *memStore) CreateStatement(ctx context.Context, s core.Statement) (core.Statement, error) {
	s.RecomputeTotals()
	s.Version = 1
	m.statements[s.ID] = s
	return s, nil
}

func (m *memStore) GetStatement(ctx context.Context, id string) (core.Statement, error) {
	s, ok := m.statements[id]
	if !ok {
		return core.Statement{}, core.ErrNotFound
	}
	return s, nil
}

func (m *memStore) ListStatements(ctx context.Context) ([]core.Statement, error) {
	var out []core.Statement
	for _, s := range m.statements {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) DeleteStatement(ctx context.Context, id string) error {
	if _, ok := m.statements[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.statements, id)
	return nil
}

func (m *memStore) MutateEntries(ctx context.Context, id string, fn func([]core.Entry) ([]core.Entry, error)) (core.Statement, error) {
	s, ok := m.statements[id]
	if !ok {
		return core.Statement{}, core.ErrNotFound
	}
	entries, err := fn(append([]core.Entry(nil), s.Entries...))
	if err != nil {
		return core.Statement{}, err
	}
	s.Entries = entries
	s.RecomputeTotals()
	s.Version++
	m.statements[id] = s
	return s, nil
}

func (m *memStore) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	for _, existing := range m.invoices {
		if existing.Number == inv.Number {
			return core.Invoice{}, fmt.Errorf("invoice number %q: %w", inv.Number, core.ErrConflict)
		}
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memStore) UpdateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if _, ok := m.invoices[inv.ID]; !ok {
		return core.Invoice{}, core.ErrNotFound
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memStore) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	if m.failInvoices {
		return nil, errors.New("disk on fire")
	}
	var out []core.Invoice
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (m *memStore) DeleteInvoice(ctx context.Context, id string) error {
	if _, ok := m.invoices[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *memStore) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	m.txs[t.ID] = t
	return t, nil
}

func (m *memStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range m.txs {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) DeleteTransaction(ctx context.Context, id string) error {
	if _, ok := m.txs[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *memStore) CreatePayroll(ctx context.Context, p core.Payroll) (core.Payroll, error) {
	m.payrolls[p.ID] = p
	return p, nil
}

func (m *memStore) ListPayrolls(ctx context.Context) ([]core.Payroll, error) {
	var out []core.Payroll
	for _, p := range m.payrolls {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) DeletePayroll(ctx context.Context, id string) error {
	if _, ok := m.payrolls[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.payrolls, id)
	return nil
}

func (m *memStore) CreateBudgetLine(ctx context.Context, b core.BudgetLine) (core.BudgetLine, error) {
	m.budgets[b.ID] = b
	return b, nil
}

func (m *memStore) ListBudgetLines(ctx context.Context) ([]core.BudgetLine, error) {
	var out []core.BudgetLine
	for _, b := range m.budgets {
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) DeleteBudgetLine(ctx context.Context, id string) error {
	if _, ok := m.budgets[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

func (m *memStore) GetProfile(ctx context.Context) (core.FinancialProfile, error) {
	return m.profile, nil
}

func (m *memStore) UpdateProfile(ctx context.Context, p core.FinancialProfile) error {
	m.profile = p
	return nil
}

func newTestServer(store *memStore) *Server {
	return NewServer("127.0.0.1:0",
		services.NewStatementService(store, nil),
		services.NewReportService(store),
		store,
		store)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	// distinct IPs keep the rate limiter out of functional tests
	req.RemoteAddr = uuid.NewString() + ":1234"
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(store)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	store.pingErr = errors.New("db gone")
	rec = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatementLifecycle(t *testing.T) {
	srv := newTestServer(newMemStore())

	rec := do(t, srv, http.MethodPost, "/api/statements", `{
		"bankName": "ACME Bank",
		"selectedMonth": "2024-03",
		"entries": [
			{"date": "2024-03-01", "description": "rent", "amount": "100", "direction": "debit"},
			{"date": "2024-03-02", "description": "sale", "amount": "40", "direction": "credit"}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created statementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "-60", created.Statement.NetAmount.String())
	assert.Empty(t, created.Warnings)
	id := created.Statement.ID

	// add an entry with an unparsable amount: kept at zero, warned
	rec = do(t, srv, http.MethodPost, "/api/statements/"+id+"/entries",
		`{"description": "mystery", "amount": "n/a", "direction": "credit"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var withWarning statementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withWarning))
	assert.Len(t, withWarning.Warnings, 1)
	assert.Len(t, withWarning.Statement.Entries, 3)
	assert.Equal(t, "-60", withWarning.Statement.NetAmount.String())

	// a bad direction is a hard validation failure
	rec = do(t, srv, http.MethodPost, "/api/statements/"+id+"/entries",
		`{"amount": "10", "direction": "sideways"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/statements/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/statements/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatementNotFound(t *testing.T) {
	srv := newTestServer(newMemStore())

	rec := do(t, srv, http.MethodPost, "/api/statements/ghost/entries",
		`{"amount": "10", "direction": "debit"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateStatementRejectsEmptyBankName(t *testing.T) {
	srv := newTestServer(newMemStore())

	rec := do(t, srv, http.MethodPost, "/api/statements", `{"bankName": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInvoiceDuplicateNumberIsConflict(t *testing.T) {
	srv := newTestServer(newMemStore())

	body := `{"vendor": "v", "number": "INV-1", "amount": "1000", "taxAmount": "150"}`
	rec := do(t, srv, http.MethodPost, "/api/invoices", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var inv core.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, "1150", inv.TotalAmount.String())

	rec = do(t, srv, http.MethodPost, "/api/invoices", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInvoiceBadAmountRejected(t *testing.T) {
	srv := newTestServer(newMemStore())

	rec := do(t, srv, http.MethodPost, "/api/invoices",
		`{"vendor": "v", "number": "INV-2", "amount": "lots"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReportMonthFilter(t *testing.T) {
	srv := newTestServer(newMemStore())

	rec := do(t, srv, http.MethodGet, "/api/reports/balance-sheet?month=2024-03", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// malformed filter is a hard 400, never a silent all-time view
	rec = do(t, srv, http.MethodGet, "/api/reports/balance-sheet?month=march", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/reports/profit-loss?month=2024-13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportFailedFetchNamesLedger(t *testing.T) {
	store := newMemStore()
	store.failInvoices = true
	srv := newTestServer(store)

	rec := do(t, srv, http.MethodGet, "/api/reports/profit-loss", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "fetch invoices")
}

func TestProfitLossGroupByMonth(t *testing.T) {
	srv := newTestServer(newMemStore())

	rec := do(t, srv, http.MethodPost, "/api/transactions",
		`{"name": "consulting", "direction": "income", "amount": "250", "date": "2024-05-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/reports/profit-loss?groupBy=month", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var pnl core.ProfitAndLoss
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pnl))
	require.Len(t, pnl.Series, 12)
	assert.Equal(t, "250", pnl.Series[4].Income.String())
}

func TestRateLimitOnMutatingMethods(t *testing.T) {
	srv := newTestServer(newMemStore())

	var last int
	for i := 0; i < 61; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/transactions",
			strings.NewReader(`{"name": "x", "direction": "income", "amount": "1"}`))
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// reads are not limited
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	srv := newTestServer(newMemStore())

	rec := do(t, srv, http.MethodPut, "/api/profile",
		`{"nonCurrentAssets": "5000", "liabilities": "2000", "equity": "3000", "currency": "EUR"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var profile core.FinancialProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "5000", profile.NonCurrentAssets.String())
}
