// Package sheets exports salary period summaries to a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/report"
)

// Config holds the target spreadsheet and service account credentials.
// CredentialsJSON wins over CredentialsFile when both are set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Exporter writes one tab per owner, replacing its contents on each export.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var header = []interface{}{
	"Fecha de pago", "Frecuencia", "Inicio", "Fin", "Salario",
	"Gastos fijos", "Gastos generales", "Total", "Restante", "% gastado", "Tendencia",
}

// NewExporter authenticates with the service account in cfg.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Exporter {
	if sheetName == "" {
		sheetName = "Periodos"
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// SheetTitle is the tab that holds owner's periods.
func (e *Exporter) SheetTitle(owner string) string {
	return e.sheetName + " " + owner
}

// ExportPeriods replaces owner's tab with one row per salary period.
func (e *Exporter) ExportPeriods(ctx context.Context, owner string, periods []report.PeriodReport) error {
	title := e.SheetTitle(owner)
	if err := e.ensureSheet(ctx, title); err != nil {
		return err
	}

	rng := fmt.Sprintf("'%s'!A1:K", title)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %q: %w", title, err)
	}

	vr := &gsheet.ValueRange{Values: periodRows(periods)}
	resp, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, fmt.Sprintf("'%s'!A1", title), vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write sheet %q: %w", title, err)
	}

	slog.InfoContext(ctx, "Exported salary periods",
		log.FieldComponent, log.ComponentSheets,
		log.FieldOwner, owner,
		"sheet", title,
		"rows", resp.UpdatedRows)
	return nil
}

// ensureSheet adds the tab when the spreadsheet does not have it yet.
func (e *Exporter) ensureSheet(ctx context.Context, title string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	return nil
}

// periodRows renders the header and one row per period, most recent first.
func periodRows(periods []report.PeriodReport) [][]interface{} {
	rows := make([][]interface{}, 0, len(periods)+1)
	rows = append(rows, header)
	for _, p := range periods {
		pct := ""
		if p.PercentSpent != nil {
			pct = p.PercentSpent.StringFixed(core.AmountPlaces)
		}
		trend := ""
		if p.Trend != nil {
			trend = string(p.Trend.Trend)
		}
		rows = append(rows, []interface{}{
			p.Salary.PayDate.String(),
			string(p.Salary.Frequency),
			p.Period.Start.String(),
			p.Period.End.String(),
			p.Salary.Amount.StringFixed(core.AmountPlaces),
			p.Fixed.Total.StringFixed(core.AmountPlaces),
			p.General.Total.StringFixed(core.AmountPlaces),
			p.Total.StringFixed(core.AmountPlaces),
			p.Remaining.StringFixed(core.AmountPlaces),
			pct,
			trend,
		})
	}
	return rows
}
