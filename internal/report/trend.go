package report

import "github.com/shopspring/decimal"

type Trend string

const (
	Improving Trend = "Improving"
	Worsening Trend = "Worsening"
	Stable    Trend = "Stable"
)

// Totals is what a salary period spent against what it paid.
type Totals struct {
	Expenses decimal.Decimal `json:"expenses"`
	Salary   decimal.Decimal `json:"salary"`
}

type TrendReport struct {
	SalaryDelta  decimal.Decimal `json:"salary_delta"`
	ExpenseDelta decimal.Decimal `json:"expense_delta"`
	Trend        Trend           `json:"trend"`
}

// CompareTrend diffs a period against the one before it. A zero salary delta
// counts as not worse for Improving and as not better for Worsening.
func CompareTrend(current, previous Totals) TrendReport {
	r := TrendReport{
		SalaryDelta:  current.Salary.Sub(previous.Salary),
		ExpenseDelta: current.Expenses.Sub(previous.Expenses),
		Trend:        Stable,
	}
	switch {
	case r.ExpenseDelta.IsNegative() && !r.SalaryDelta.IsNegative():
		r.Trend = Improving
	case r.ExpenseDelta.IsPositive() && !r.SalaryDelta.IsPositive():
		r.Trend = Worsening
	}
	return r
}
