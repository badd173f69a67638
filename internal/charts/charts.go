// Package charts renders report views as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"gastos/internal/report"
)

// ErrNoData is returned when a chart would have nothing to draw.
var ErrNoData = errors.New("no data to chart")

// minSliceShare hides pie slices below this share of the total, in percent.
const minSliceShare = 1.0

var background = chart.Style{
	Padding: chart.Box{
		Top:    50,
		Left:   50,
		Right:  50,
		Bottom: 50,
	},
	FillColor: chart.ColorWhite,
}

// CategoryPie draws the spending share of each category.
func CategoryPie(totals []report.CategoryTotal) ([]byte, error) {
	total := 0.0
	for _, c := range totals {
		total += c.Total.InexactFloat64()
	}
	if total <= 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(totals))
	for _, c := range totals {
		amount := c.Total.InexactFloat64()
		share := amount / total * 100
		if share <= minSliceShare {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: $%.0f (%.1f%%)", c.Category, amount, share),
			Value: amount,
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		})
	}

	pie := chart.PieChart{
		Title:      "Gastos por categoría",
		Width:      800,
		Height:     800,
		Values:     values,
		Background: background,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render category pie chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// MonthBars draws general spending per month, oldest on the left. At most
// limit months are shown.
func MonthBars(groups []report.MonthGroup, limit int) ([]byte, error) {
	if len(groups) == 0 {
		return nil, ErrNoData
	}
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	bars := make([]chart.Value, 0, len(groups))
	top := 0.0
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		top = math.Max(top, g.Total.InexactFloat64())
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%.3s %d", g.Month, g.Year),
			Value: g.Total.InexactFloat64(),
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorBlue,
			},
		})
	}

	if top <= 0 {
		return nil, ErrNoData
	}

	// a fixed range keeps a single bar drawable and anchors bars at zero
	graph := chart.BarChart{
		Title: "Gastos generales por mes",
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:      1200,
		Height:     600,
		BarWidth:   60,
		Background: background,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("$%.0f", v.(float64))
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render month bar chart: %w", err)
	}
	return buffer.Bytes(), nil
}
