package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gastos/internal/core"
	"gastos/internal/report"
)

type recordedCall struct {
	method string
	path   string
	body   string
}

func fakeSheetsAPI(t *testing.T, existing ...string) (*gsheet.Service, func() []recordedCall) {
	t.Helper()
	var mu sync.Mutex
	var calls []recordedCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recordedCall{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			sheets := make([]map[string]any, 0, len(existing))
			for _, title := range existing {
				sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
		case http.MethodPut:
			_, _ = w.Write([]byte(`{"updatedRows": 3}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return svc, func() []recordedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedCall(nil), calls...)
	}
}

func samplePeriods() []report.PeriodReport {
	pct := decimal.NewFromInt(60)
	return []report.PeriodReport{
		{
			Salary:       core.SalaryRecord{ID: "s2", Amount: decimal.NewFromInt(1000000), Frequency: core.Monthly, PayDate: core.NewDate(2025, 3, 1)},
			Period:       core.Period{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 4, 1)},
			Latest:       true,
			Total:        decimal.NewFromInt(600000),
			Remaining:    decimal.NewFromInt(400000),
			PercentSpent: &pct,
			Trend:        &report.TrendReport{Trend: report.Improving},
		},
		{
			Salary:    core.SalaryRecord{ID: "s1", Amount: decimal.NewFromInt(1000000), Frequency: core.Monthly, PayDate: core.NewDate(2025, 2, 1)},
			Period:    core.Period{Start: core.NewDate(2025, 2, 1), End: core.NewDate(2025, 3, 1)},
			Total:     decimal.NewFromInt(700000),
			Remaining: decimal.NewFromInt(300000),
		},
	}
}

func TestPeriodRows(t *testing.T) {
	rows := periodRows(samplePeriods())
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Fecha de pago" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	latest := rows[1]
	if latest[0] != "2025-03-01" || latest[1] != "monthly" || latest[4] != "1000000.00" || latest[9] != "60.00" || latest[10] != "Improving" {
		t.Fatalf("unexpected latest row %v", latest)
	}
	if oldest := rows[2]; oldest[9] != "" || oldest[10] != "" {
		t.Fatalf("missing percent and trend must be blank, got %v", oldest)
	}
}

func TestExportPeriodsCreatesSheet(t *testing.T) {
	svc, calls := fakeSheetsAPI(t)
	e := NewWithService(svc, "sheet-id", "")

	if err := e.ExportPeriods(context.Background(), "u1", samplePeriods()); err != nil {
		t.Fatalf("export: %v", err)
	}

	got := calls()
	if len(got) != 4 {
		t.Fatalf("expected get, add sheet, clear and update; got %+v", got)
	}
	if got[1].method != http.MethodPost || !strings.HasSuffix(got[1].path, ":batchUpdate") || !strings.Contains(got[1].body, "Periodos u1") {
		t.Errorf("expected AddSheet request, got %+v", got[1])
	}
	if !strings.HasSuffix(got[2].path, ":clear") {
		t.Errorf("expected clear request, got %+v", got[2])
	}
	if got[3].method != http.MethodPut || !strings.Contains(got[3].body, "1000000.00") {
		t.Errorf("expected values update, got %+v", got[3])
	}
}

func TestExportPeriodsReusesSheet(t *testing.T) {
	svc, calls := fakeSheetsAPI(t, "Gastos u1")
	e := NewWithService(svc, "sheet-id", "Gastos")

	if err := e.ExportPeriods(context.Background(), "u1", nil); err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, c := range calls() {
		if strings.HasSuffix(c.path, ":batchUpdate") {
			t.Fatal("existing sheet must not be added again")
		}
	}
}

func TestNewExporterRequiresConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing id", Config{CredentialsJSON: "{}"}},
		{"missing credentials", Config{SpreadsheetID: "x"}},
		{"unreadable file", Config{SpreadsheetID: "x", CredentialsFile: "/nonexistent/sa.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewExporter(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
