package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

// CategoryTotal is the monthly cost attributed to one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MonthGroup collects the general expenses of one month of one year.
type MonthGroup struct {
	Month string                `json:"month"`
	Year  int                   `json:"year"`
	Total decimal.Decimal       `json:"total"`
	Items []core.GeneralExpense `json:"items"`
}

// ByCategory sums fixed expenses by monthly cost under their own category
// and every general expense under core.GeneralExpensesLabel.
func ByCategory(fixed []core.FixedExpense, general []core.GeneralExpense) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range fixed {
		out[e.Category] = out[e.Category].Add(e.MonthlyCost)
	}
	for _, e := range general {
		out[core.GeneralExpensesLabel] = out[core.GeneralExpensesLabel].Add(e.Price)
	}
	return out
}

// SortedCategories flattens a ByCategory result ordered by category name.
func SortedCategories(totals map[string]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for name, total := range totals {
		out = append(out, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// ByMonth groups general expenses by (month name, year), newest year first
// and, within a year, latest calendar month first. Items keep input order.
func ByMonth(general []core.GeneralExpense) []MonthGroup {
	type key struct {
		month string
		year  int
	}
	index := make(map[key]int)
	var groups []MonthGroup
	for _, e := range general {
		k := key{e.Month, e.Year}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, MonthGroup{Month: e.Month, Year: e.Year, Total: decimal.Zero})
		}
		groups[i].Total = groups[i].Total.Add(e.Price)
		groups[i].Items = append(groups[i].Items, e)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Year != groups[j].Year {
			return groups[i].Year > groups[j].Year
		}
		return monthOrder(groups[i].Month) > monthOrder(groups[j].Month)
	})
	return groups
}

// monthOrder ranks unknown month names below every real month.
func monthOrder(name string) int {
	n, err := core.MonthNumber(name)
	if err != nil {
		return 0
	}
	return n
}
