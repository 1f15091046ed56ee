package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finanzas/internal/backend"
	"finanzas/internal/core"
	"finanzas/internal/jsonstore"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := jsonstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.New(log.DefaultConfig())
	return NewServer("0",
		store,
		services.NewCreditService(store, 40),
		services.NewAlertService(store, nil, logger),
		logger,
	)
}

func newTestServerWithStore(t *testing.T, store backend.Store) *Server {
	t.Helper()
	logger := log.New(log.DefaultConfig())
	return NewServer("0",
		store,
		services.NewCreditService(store, 40),
		services.NewAlertService(store, nil, logger),
		logger,
	)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("/readyz = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Errorf("/metrics = %d, want 200", rec.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"amount": 120.5, "store": "market", "paymentType": "cash", "date": "2024-06-01", "category": "Food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Expense](t, rec)
	if created.ID == "" {
		t.Fatal("created expense must carry an id")
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/expenses/"+created.ID, map[string]any{"amount": 99.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decode[core.Expense](t, rec)
	if updated.Amount != 99 || updated.Store != "market" {
		t.Fatalf("patch semantics broken: %+v", updated)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses", nil)
	if got := decode[[]core.Expense](t, rec); len(got) != 1 {
		t.Fatalf("list = %d records, want 1", len(got))
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses?startDate=2024-07-01&endDate=2024-07-31", nil)
	if got := decode[[]core.Expense](t, rec); len(got) != 0 {
		t.Fatalf("filtered list = %d records, want 0", len(got))
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/expenses?startDate=2024-06-01", nil)
	if got := decode[[]core.Expense](t, rec); len(got) != 1 {
		t.Fatalf("open-ended filter = %d records, want 1", len(got))
	}
	if rec = doJSON(t, srv, http.MethodGet, "/api/expenses?startDate=junk", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad startDate = %d, want 400", rec.Code)
	}

	if rec = doJSON(t, srv, http.MethodDelete, "/api/expenses/"+created.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec = doJSON(t, srv, http.MethodDelete, "/api/expenses/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", rec.Code)
	}
}

func TestExpenseValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing store", map[string]any{"amount": 1, "paymentType": "cash"}},
		{"bad payment type", map[string]any{"amount": 1, "store": "x", "paymentType": "cheque"}},
		{"negative amount", map[string]any{"amount": -5, "store": "x", "paymentType": "cash"}},
		{"bad date", map[string]any{"amount": 1, "store": "x", "paymentType": "cash", "date": "junk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doJSON(t, srv, http.MethodPost, "/api/expenses", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/expenses", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestIncomeValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/incomes", map[string]any{
		"amount": 5000, "source": "Sueldo", "date": "2024-06-01", "description": "salary",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/incomes", map[string]any{
		"amount": 100, "source": "Lottery", "description": "win",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown source = %d, want 400", rec.Code)
	}
}

func TestIncomeUpdateValidatesSource(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/incomes", map[string]any{
		"amount": 5000, "source": "Sueldo", "date": "2024-06-01", "description": "salary",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Income](t, rec)

	rec = doJSON(t, srv, http.MethodPut, "/api/incomes/"+created.ID, map[string]any{"source": "Lottery"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown source on update = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/incomes/"+created.ID, map[string]any{"source": "Otros"})
	if rec.Code != http.StatusOK {
		t.Fatalf("valid source on update = %d, body %s", rec.Code, rec.Body.String())
	}
	if updated := decode[core.Income](t, rec); updated.Source != "Otros" {
		t.Fatalf("source not updated: %+v", updated)
	}
}

func TestCategoryUniqueness(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodPost, "/api/categories", map[string]any{"name": "Food"}); rec.Code != http.StatusCreated {
		t.Fatalf("create = %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodPost, "/api/categories", map[string]any{"name": "Food"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate = %d, want 400", rec.Code)
	}
}

func TestCreditPaymentCreatesLinkedExpense(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/credit-card", map[string]any{
		"paymentDate":          "2024-06-10",
		"pendingAmountPesos":   900,
		"pendingAmountDollars": 9,
		"payedAmountPesos":     1000,
		"payedAmountDollars":   10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	entry := decode[core.CreditCardEntry](t, rec)

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses", nil)
	expenses := decode[[]core.Expense](t, rec)
	if len(expenses) != 1 {
		t.Fatalf("expected one linked expense, got %d", len(expenses))
	}
	if expenses[0].Amount != 1400 || expenses[0].SourceEntryID != entry.ID {
		t.Fatalf("unexpected linked expense: %+v", expenses[0])
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/credit-card", map[string]any{"paymentDate": "2024-06-10"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing pending amounts = %d, want 400", rec.Code)
	}
}

// partialLinkageStore fails the linked write the way the flat-file store
// does when the entry survives but its expense and the rollback both fail.
type partialLinkageStore struct {
	backend.Store
}

func (s partialLinkageStore) AppendCreditEntryWithExpense(ctx context.Context, entry core.CreditCardEntry, linked core.Expense) (core.CreditCardEntry, error) {
	return entry, fmt.Errorf("%w: append linked expense", core.ErrPartialLinkage)
}

func TestCreditPaymentPartialLinkageMapsToBadGateway(t *testing.T) {
	store, err := jsonstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	srv := newTestServerWithStore(t, partialLinkageStore{Store: store})

	rec := doJSON(t, srv, http.MethodPost, "/api/credit-card", map[string]any{
		"paymentDate": "2024-06-10", "pendingAmountPesos": 900, "pendingAmountDollars": 9,
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 (body %s)", rec.Code, rec.Body.String())
	}
	if resp := decode[errorResponse](t, rec); resp.Error != "credit entry stored without its linked expense" {
		t.Fatalf("unexpected error payload: %q", resp.Error)
	}
}

// cancelAwareStore fails list reads once the request context is gone, the
// way the SQLite backend does.
type cancelAwareStore struct {
	backend.Store
}

func (s cancelAwareStore) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.ListExpenses(ctx)
}

func (s cancelAwareStore) ListCreditEntries(ctx context.Context) ([]core.CreditCardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.ListCreditEntries(ctx)
}

func TestSummaryLookupsSurviveCanceledCaller(t *testing.T) {
	store, err := jsonstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	srv := newTestServerWithStore(t, cancelAwareStore{Store: store})

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"amount": 100, "store": "market", "paymentType": "cash", "date": "2024-06-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed expense = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/credit-card", map[string]any{
		"paymentDate": "2024-06-10", "pendingAmountPesos": 900, "pendingAmountDollars": 9,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed payment = %d", rec.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Collapsed lookups are shared between callers, so a caller that went
	// away must not poison the result for the rest.
	for _, path := range []string{
		"/api/summary?startDate=2024-06-01&endDate=2024-06-30",
		"/api/credit-card/summary?fromDate=2024-06-01&toDate=2024-06-30",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s with canceled request context = %d, body %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestCreditSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	for day, payed := range map[string]float64{"2024-06-05": 100, "2024-06-20": 200} {
		rec := doJSON(t, srv, http.MethodPost, "/api/credit-card", map[string]any{
			"paymentDate": day, "pendingAmountPesos": 900, "pendingAmountDollars": 9, "payedAmountPesos": payed,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed payment = %d", rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/credit-card/summary?fromDate=2024-06-01&toDate=2024-06-30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary = %d, body %s", rec.Code, rec.Body.String())
	}
	summary := decode[core.CreditMonthlySummary](t, rec)
	if len(summary.FilteredPayments) != 2 || summary.Summary.TotalPayedPesos != 300 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if rec = doJSON(t, srv, http.MethodGet, "/api/credit-card/summary?fromDate=2024-06-01", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing toDate = %d, want 400", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	seed := []map[string]any{
		{"amount": 1200, "store": "market", "paymentType": "cash", "date": "2024-06-01", "category": "Food"},
		{"amount": 300, "store": "shop", "paymentType": "debit", "date": "2024-06-15", "category": "Transport"},
	}
	for _, e := range seed {
		if rec := doJSON(t, srv, http.MethodPost, "/api/expenses", e); rec.Code != http.StatusCreated {
			t.Fatalf("seed expense = %d", rec.Code)
		}
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/incomes", map[string]any{
		"amount": 5000, "source": "Sueldo", "date": "2024-06-01", "description": "salary",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed income = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/summary?startDate=2024-06-01&endDate=2024-06-30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary = %d, body %s", rec.Code, rec.Body.String())
	}
	summary := decode[core.Summary](t, rec)
	if summary.TotalExpenses != 1500 || summary.TotalIncomes != 5000 {
		t.Fatalf("totals = %v / %v, want 1500 / 5000", summary.TotalExpenses, summary.TotalIncomes)
	}

	// Writes must invalidate the cached window.
	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"amount": 500, "store": "market", "paymentType": "cash", "date": "2024-06-20", "category": "Food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("extra expense = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/summary?startDate=2024-06-01&endDate=2024-06-30", nil)
	if summary = decode[core.Summary](t, rec); summary.TotalExpenses != 2000 {
		t.Fatalf("stale summary after write: %+v", summary)
	}

	if rec = doJSON(t, srv, http.MethodGet, "/api/summary?startDate=junk", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad startDate = %d, want 400", rec.Code)
	}
}

func TestAlertEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	category := decode[core.Category](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/api/alerts", map[string]any{
		"categoryId": category.ID, "limitAmount": 1000, "type": "category",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create alert = %d, body %s", rec.Code, rec.Body.String())
	}
	alert := decode[core.Alert](t, rec)

	// Category alerts without a category id are rejected.
	if rec = doJSON(t, srv, http.MethodPost, "/api/alerts", map[string]any{"limitAmount": 10, "type": "category"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("category alert without id = %d, want 400", rec.Code)
	}

	// Spend 90% of the limit this month so the check trips.
	today := time.Now().Format("2006-01-02")
	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"amount": 900, "store": "market", "paymentType": "cash", "date": today, "category": "Food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed expense = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/alerts/check", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check = %d, body %s", rec.Code, rec.Body.String())
	}
	statuses := decode[[]core.AlertStatus](t, rec)
	if len(statuses) != 1 || statuses[0].Percentage != 90 || statuses[0].Category != "Food" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}

	newLimit := 2000.0
	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/alerts/%d", alert.ID), map[string]any{"limitAmount": newLimit})
	if rec.Code != http.StatusOK {
		t.Fatalf("update alert = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/alerts/check", nil)
	if statuses = decode[[]core.AlertStatus](t, rec); len(statuses) != 0 {
		t.Fatalf("45%% of the new limit must not trigger: %+v", statuses)
	}

	if rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/alerts/%d", alert.ID), nil); rec.Code != http.StatusOK {
		t.Fatalf("delete alert = %d", rec.Code)
	}
	if rec = doJSON(t, srv, http.MethodPut, "/api/alerts/nope", map[string]any{"limitAmount": 5.0}); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric alert id = %d, want 400", rec.Code)
	}
}
