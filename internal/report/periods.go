package report

import (
	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

// PeriodReport is the breakdown of one salary's pay window.
type PeriodReport struct {
	Salary       core.SalaryRecord `json:"salary"`
	Period       core.Period       `json:"period"`
	Latest       bool              `json:"latest"`
	Fixed        PeriodAggregate   `json:"fixed"`
	General      PeriodAggregate   `json:"general"`
	Total        decimal.Decimal   `json:"total"`
	Remaining    decimal.Decimal   `json:"remaining"`
	PercentSpent *decimal.Decimal  `json:"percent_spent"` // nil for a zero salary
	Trend        *TrendReport      `json:"trend,omitempty"`
}

// Totals returns the period's spending against its salary.
func (r PeriodReport) Totals() Totals {
	return Totals{Expenses: r.Total, Salary: r.Salary.Amount}
}

// Statistics summarizes every salary period.
type Statistics struct {
	Periods        int             `json:"periods"`
	AverageSalary  decimal.Decimal `json:"average_salary"`
	AverageSpent   decimal.Decimal `json:"average_spent"`
	AverageSavings decimal.Decimal `json:"average_savings"`
}

// SalaryPeriods builds one report per salary, most recent first, each
// compared with the next older salary.
func SalaryPeriods(salaries []core.SalaryRecord, fixed []core.FixedExpense, general []core.GeneralExpense) []PeriodReport {
	sorted := make([]core.SalaryRecord, len(salaries))
	copy(sorted, salaries)
	core.SortSalaries(sorted)

	out := make([]PeriodReport, len(sorted))
	for i, s := range sorted {
		p := s.Period()
		r := PeriodReport{
			Salary:  s,
			Period:  p,
			Latest:  i == 0,
			Fixed:   AggregateFixed(fixed, p),
			General: AggregateGeneral(general, p),
		}
		r.Total = r.Fixed.Total.Add(r.General.Total)
		r.Remaining = s.Amount.Sub(r.Total)
		if pct, err := core.Percent(r.Total, s.Amount); err == nil {
			pct = pct.Round(core.AmountPlaces)
			r.PercentSpent = &pct
		}
		out[i] = r
	}
	for i := 0; i+1 < len(out); i++ {
		t := CompareTrend(out[i].Totals(), out[i+1].Totals())
		out[i].Trend = &t
	}
	return out
}

// Summarize averages salary, spending and savings over the given periods.
// The zero Statistics is returned for an empty history.
func Summarize(periods []PeriodReport) Statistics {
	st := Statistics{
		Periods:        len(periods),
		AverageSalary:  decimal.Zero,
		AverageSpent:   decimal.Zero,
		AverageSavings: decimal.Zero,
	}
	if len(periods) == 0 {
		return st
	}
	var salary, spent, savings decimal.Decimal
	for _, p := range periods {
		salary = salary.Add(p.Salary.Amount)
		spent = spent.Add(p.Total)
		savings = savings.Add(p.Remaining)
	}
	n := decimal.NewFromInt(int64(len(periods)))
	st.AverageSalary = salary.DivRound(n, core.AmountPlaces)
	st.AverageSpent = spent.DivRound(n, core.AmountPlaces)
	st.AverageSavings = savings.DivRound(n, core.AmountPlaces)
	return st
}

// FixedTotals is the monthly and annual cost of all fixed expenses.
type FixedTotals struct {
	Monthly decimal.Decimal `json:"monthly"`
	Annual  decimal.Decimal `json:"annual"`
}

func SumFixed(fixed []core.FixedExpense) FixedTotals {
	t := FixedTotals{Monthly: decimal.Zero, Annual: decimal.Zero}
	for _, e := range fixed {
		t.Monthly = t.Monthly.Add(e.MonthlyCost)
		t.Annual = t.Annual.Add(e.AnnualCost)
	}
	return t
}
