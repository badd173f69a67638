// Package report derives period aggregates, health, trend and grouping
// views from snapshots of the ledger. Every function is pure; callers pass
// copies and the current date explicitly.
package report

import (
	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

// PeriodItem is one expense counted in a period.
type PeriodItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Date   core.Date       `json:"date"`
}

// PeriodAggregate is the sum of the expenses falling in a period, with the
// counted items in their original order.
type PeriodAggregate struct {
	Total   decimal.Decimal `json:"total"`
	Details []PeriodItem    `json:"details"`
}

// AggregateFixed counts fixed expenses whose renewal date lies in p.
func AggregateFixed(expenses []core.FixedExpense, p core.Period) PeriodAggregate {
	return aggregate(len(expenses), func(i int) PeriodItem {
		e := expenses[i]
		return PeriodItem{Label: e.Service, Amount: e.Price, Date: e.RenewalDate}
	}, p)
}

// AggregateGeneral counts general expenses dated in p.
func AggregateGeneral(expenses []core.GeneralExpense, p core.Period) PeriodAggregate {
	return aggregate(len(expenses), func(i int) PeriodItem {
		e := expenses[i]
		return PeriodItem{Label: e.Description, Amount: e.Price, Date: e.Date}
	}, p)
}

// aggregate applies the closed interval rule: an item dated exactly on
// p.End is counted here and again in a window starting on that date.
func aggregate(n int, item func(int) PeriodItem, p core.Period) PeriodAggregate {
	out := PeriodAggregate{Total: decimal.Zero, Details: []PeriodItem{}}
	for i := 0; i < n; i++ {
		it := item(i)
		if !p.Contains(it.Date) {
			continue
		}
		out.Total = out.Total.Add(it.Amount)
		out.Details = append(out.Details, it)
	}
	return out
}
