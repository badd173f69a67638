package charts

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"gastos/internal/report"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestCategoryPie(t *testing.T) {
	totals := []report.CategoryTotal{
		{Category: "Gastos Generales", Total: decimal.NewFromInt(450000)},
		{Category: "Vivienda", Total: decimal.NewFromInt(1200000)},
		{Category: "Entretenimiento", Total: decimal.NewFromInt(45000)},
	}
	img, err := CategoryPie(totals)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatalf("expected PNG output")
	}
}

func TestMonthBars(t *testing.T) {
	groups := []report.MonthGroup{
		{Month: "marzo", Year: 2025, Total: decimal.NewFromInt(300000)},
		{Month: "febrero", Year: 2025, Total: decimal.NewFromInt(250000)},
		{Month: "diciembre", Year: 2024, Total: decimal.NewFromInt(500000)},
	}
	img, err := MonthBars(groups, 2)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatalf("expected PNG output")
	}
}

func TestChartsWithoutData(t *testing.T) {
	if _, err := CategoryPie(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := MonthBars(nil, 12); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
