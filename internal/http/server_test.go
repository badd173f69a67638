package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/services"
	"gastos/internal/storage/memory"
)

const testSecret = "test-secret"

type testAPI struct {
	t      *testing.T
	srv    *Server
	tokens map[string]string
}

func newTestAPI(t *testing.T, opts ...Option) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	today := core.NewDate(2025, 3, 15)
	ledger := services.NewLedgerService(memory.New(),
		services.WithClock(func() core.Date { return today }),
		services.WithLogger(log.Discard()))

	cfg := Config{
		Addr:               ":0",
		CORSOrigins:        []string{"http://localhost:5173"},
		RateLimitPerMinute: 1000,
		JWTSecret:          testSecret,
	}
	srv := NewServer(cfg, ledger, append([]Option{WithLogger(log.Discard())}, opts...)...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testAPI{t: t, srv: srv, tokens: make(map[string]string)}
}

func (a *testAPI) token(owner string) string {
	a.t.Helper()
	if tok, ok := a.tokens[owner]; ok {
		return tok
	}
	tok, err := NewAuthenticator(testSecret).IssueToken(owner, time.Hour)
	if err != nil {
		a.t.Fatalf("issue token: %v", err)
	}
	a.tokens[owner] = tok
	return tok
}

func (a *testAPI) do(owner, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(owner))
	}
	w := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthAndReadiness(t *testing.T) {
	api := newTestAPI(t,
		WithReadinessCheck("storage", func(context.Context) error { return nil }))

	for _, path := range []string{"/healthz", "/readyz"} {
		if w := api.do("", http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, w.Code)
		}
	}

	failing := newTestAPI(t,
		WithReadinessCheck("cache", func(context.Context) error { return errors.New("redis down") }))
	w := failing.do("", http.MethodGet, "/readyz", nil)
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "redis down") {
		t.Fatalf("readyz with failing check: %d %s", w.Code, w.Body.String())
	}
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte(testSecret))
	foreign, _ := NewAuthenticator("other-secret").IssueToken("u1", time.Hour)
	noSubject, _ := NewAuthenticator(testSecret).IssueToken("", time.Hour)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dTE6cGFzcw=="},
		{"expired", "Bearer " + expired},
		{"foreign secret", "Bearer " + foreign},
		{"no subject", "Bearer " + noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			api.srv.Handler.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status=%d", w.Code)
			}
		})
	}
}

func TestCategoryEndpoints(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("u1", http.MethodGet, "/api/v1/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	cats := decode[[]core.Category](t, w)
	if len(cats) != len(core.DefaultCategories()) {
		t.Fatalf("expected seeded defaults, got %d", len(cats))
	}

	if w := api.do("u1", http.MethodPost, "/api/v1/categories", categoryRequest{Name: "Mascotas"}); w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if w := api.do("u1", http.MethodPost, "/api/v1/categories", categoryRequest{Name: "Mascotas"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	}
	if w := api.do("u1", http.MethodPost, "/api/v1/categories", categoryRequest{Name: "  "}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name: %d", w.Code)
	}
	if w := api.do("u1", http.MethodPut, "/api/v1/categories/Mascotas", categoryRequest{Name: "Animales"}); w.Code != http.StatusOK {
		t.Fatalf("rename: %d %s", w.Code, w.Body.String())
	}

	w = api.do("u1", http.MethodGet, "/api/v1/categories/Vivienda/usage", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"fixed_expenses":0`) {
		t.Fatalf("usage: %d %s", w.Code, w.Body.String())
	}

	cats = decode[[]core.Category](t, api.do("u1", http.MethodGet, "/api/v1/categories", nil))
	for _, c := range cats[1:] {
		if w := api.do("u1", http.MethodDelete, "/api/v1/categories/"+c.Name, nil); w.Code != http.StatusNoContent {
			t.Fatalf("delete %s: %d", c.Name, w.Code)
		}
	}
	if w := api.do("u1", http.MethodDelete, "/api/v1/categories/"+cats[0].Name, nil); w.Code != http.StatusConflict {
		t.Fatalf("deleting the last category must conflict, got %d", w.Code)
	}
}

func TestFixedExpenseEndpoints(t *testing.T) {
	api := newTestAPI(t)

	invalid := core.RawFixedExpense{Service: "Internet", Category: "Servicios", Price: "90000", Frequency: "weekly", RenewalDate: "2025-04-01"}
	if w := api.do("u1", http.MethodPost, "/api/v1/fixed-expenses", invalid); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid frequency: %d", w.Code)
	}
	malformed := core.RawFixedExpense{Service: "Internet", Category: "Servicios", Price: "90000", Frequency: "monthly", RenewalDate: "01/04/2025"}
	if w := api.do("u1", http.MethodPost, "/api/v1/fixed-expenses", malformed); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("malformed date: %d", w.Code)
	}

	raw := core.RawFixedExpense{Service: "Internet", Category: "Servicios", Price: "90000", Frequency: "biweekly", RenewalDate: "2025-03-20"}
	w := api.do("u1", http.MethodPost, "/api/v1/fixed-expenses", raw)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decode[core.FixedExpense](t, w)
	if created.ID == "" || created.DaysRemaining != 20 || created.MonthlyCost.String() != "180000" {
		t.Fatalf("unexpected expense %+v", created)
	}

	raw.Price = "100000"
	w = api.do("u1", http.MethodPut, "/api/v1/fixed-expenses/"+created.ID, raw)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	w = api.do("u1", http.MethodGet, "/api/v1/fixed-expenses/totals", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"200000"`) {
		t.Fatalf("totals: %d %s", w.Code, w.Body.String())
	}

	if w := api.do("u2", http.MethodGet, "/api/v1/fixed-expenses/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("other owners must not see the expense, got %d", w.Code)
	}
	if w := api.do("u1", http.MethodDelete, "/api/v1/fixed-expenses/"+created.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w := api.do("u1", http.MethodDelete, "/api/v1/fixed-expenses/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
}

func TestGeneralExpenseEndpoints(t *testing.T) {
	api := newTestAPI(t)

	entries := []core.RawGeneralExpense{
		{Description: "Supermercado", Price: "150000", Date: "2025-03-05"},
		{Description: "Cine", Price: "40000", Month: "febrero", Year: 2025},
	}
	for _, e := range entries {
		if w := api.do("u1", http.MethodPost, "/api/v1/general-expenses", e); w.Code != http.StatusCreated {
			t.Fatalf("create %s: %d %s", e.Description, w.Code, w.Body.String())
		}
	}

	w := api.do("u1", http.MethodGet, "/api/v1/general-expenses?month=febrero&year=2025", nil)
	got := decode[[]core.GeneralExpense](t, w)
	if len(got) != 1 || got[0].Description != "Cine" || got[0].Date.String() != "2025-02-01" {
		t.Fatalf("filtered listing: %+v", got)
	}

	for _, q := range []string{"?year=abc", "?month=brumario"} {
		if w := api.do("u1", http.MethodGet, "/api/v1/general-expenses"+q, nil); w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: %d", q, w.Code)
		}
	}

	if w := api.do("u1", http.MethodPost, "/api/v1/general-expenses", "not an object"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad body: %d", w.Code)
	}
}

func TestReportEndpoints(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("u1", http.MethodGet, "/api/v1/reports/health", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"health":null}` {
		t.Fatalf("health without salary: %d %s", w.Code, w.Body.String())
	}
	if w := api.do("u1", http.MethodGet, "/api/v1/reports/categories.png", nil); w.Code != http.StatusNoContent {
		t.Fatalf("empty chart: %d", w.Code)
	}

	salary := core.RawSalaryRecord{Amount: "1000000", Frequency: "monthly", PayDate: "2025-03-01"}
	w = api.do("u1", http.MethodPost, "/api/v1/salaries", salary)
	if w.Code != http.StatusCreated {
		t.Fatalf("salary: %d %s", w.Code, w.Body.String())
	}
	rec := decode[core.SalaryRecord](t, w)

	expense := core.RawGeneralExpense{Description: "Arriendo", Price: "600000", Date: "2025-03-02"}
	if w := api.do("u1", http.MethodPost, "/api/v1/general-expenses", expense); w.Code != http.StatusCreated {
		t.Fatalf("expense: %d", w.Code)
	}

	w = api.do("u1", http.MethodGet, "/api/v1/reports/health", nil)
	body := decode[struct {
		Health struct {
			State        string `json:"state"`
			PercentSpent string `json:"percent_spent"`
		} `json:"health"`
	}](t, w)
	if body.Health.State != "Good" || body.Health.PercentSpent != "60" {
		t.Fatalf("health: %s", w.Body.String())
	}

	w = api.do("u1", http.MethodGet, "/api/v1/reports/periods", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"latest":true`) {
		t.Fatalf("periods: %d %s", w.Code, w.Body.String())
	}
	for _, path := range []string{"/api/v1/reports/statistics", "/api/v1/reports/categories", "/api/v1/reports/months"} {
		if w := api.do("u1", http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, w.Code)
		}
	}

	w = api.do("u1", http.MethodGet, "/api/v1/reports/months.png", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("months chart: %d %s", w.Code, w.Header().Get("Content-Type"))
	}

	salary.Amount = "2000000"
	if w := api.do("u1", http.MethodPut, "/api/v1/salaries/"+rec.ID, salary); w.Code != http.StatusOK {
		t.Fatalf("update salary: %d %s", w.Code, w.Body.String())
	}
	w = api.do("u1", http.MethodGet, "/api/v1/reports/health", nil)
	if !strings.Contains(w.Body.String(), `"state":"Excellent"`) {
		t.Fatalf("health after raise: %s", w.Body.String())
	}
	if w := api.do("u1", http.MethodDelete, "/api/v1/salaries/"+rec.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete salary: %d", w.Code)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ledger := services.NewLedgerService(memory.New(), services.WithLogger(log.Discard()))
	srv := NewServer(Config{CORSOrigins: []string{"http://localhost:5173"}, RateLimitPerMinute: 1, JWTSecret: testSecret}, ledger, WithLogger(log.Discard()))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	api := &testAPI{t: t, srv: srv, tokens: make(map[string]string)}

	if w := api.do("u1", http.MethodPost, "/api/v1/categories", categoryRequest{Name: "Uno"}); w.Code != http.StatusCreated {
		t.Fatalf("first write: %d", w.Code)
	}
	w := api.do("u1", http.MethodPost, "/api/v1/categories", categoryRequest{Name: "Dos"})
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("second write: %d", w.Code)
	}
	if w := api.do("u1", http.MethodGet, "/api/v1/categories", nil); w.Code != http.StatusOK {
		t.Fatalf("reads stay open: %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{core.ErrMalformedDate, http.StatusUnprocessableEntity},
		{core.ErrZeroSalary, http.StatusUnprocessableEntity},
		{core.ErrLastCategory, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
