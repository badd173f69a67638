package report

import (
	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

type HealthState string

const (
	Excellent HealthState = "Excellent"
	Good      HealthState = "Good"
	Moderate  HealthState = "Moderate"
	Critical  HealthState = "Critical"
)

var (
	excellentCeiling = decimal.NewFromInt(50)
	goodCeiling      = decimal.NewFromInt(70)
	moderateCeiling  = decimal.NewFromInt(90)
	hundred          = decimal.NewFromInt(100)
)

// HealthReport is the budget snapshot of the current month against the
// most recent salary.
type HealthReport struct {
	SalaryID          string          `json:"salary_id"`
	Salary            decimal.Decimal `json:"salary"`
	PayDate           core.Date       `json:"pay_date"`
	FixedTotal        decimal.Decimal `json:"fixed_total"`
	GeneralMonthTotal decimal.Decimal `json:"general_month_total"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	Available         decimal.Decimal `json:"available"`
	PercentSpent      decimal.Decimal `json:"percent_spent"`
	PercentAvailable  decimal.Decimal `json:"percent_available"`
	State             HealthState     `json:"state"`
	OverBudget        bool            `json:"over_budget"`
	Overspend         decimal.Decimal `json:"overspend"`
}

// Classify maps a spent percentage to a state. Upper bounds are inclusive.
func Classify(percentSpent decimal.Decimal) HealthState {
	switch {
	case percentSpent.LessThanOrEqual(excellentCeiling):
		return Excellent
	case percentSpent.LessThanOrEqual(goodCeiling):
		return Good
	case percentSpent.LessThanOrEqual(moderateCeiling):
		return Moderate
	default:
		return Critical
	}
}

// EvaluateHealth compares the monthly cost of every fixed expense plus the
// general expenses of today's month against latest. It returns nil without
// error when there is no salary, and core.ErrZeroSalary when its amount is
// zero.
func EvaluateHealth(latest *core.SalaryRecord, fixed []core.FixedExpense, general []core.GeneralExpense, today core.Date) (*HealthReport, error) {
	if latest == nil {
		return nil, nil
	}
	if latest.Amount.IsZero() {
		return nil, core.ErrZeroSalary
	}

	fixedTotal := decimal.Zero
	for _, e := range fixed {
		fixedTotal = fixedTotal.Add(e.MonthlyCost)
	}
	generalTotal := decimal.Zero
	for _, e := range general {
		if e.InMonth(today) {
			generalTotal = generalTotal.Add(e.Price)
		}
	}

	spent := fixedTotal.Add(generalTotal)
	pct, err := core.Percent(spent, latest.Amount)
	if err != nil {
		return nil, err
	}
	available := latest.Amount.Sub(spent)

	r := &HealthReport{
		SalaryID:          latest.ID,
		Salary:            latest.Amount,
		PayDate:           latest.PayDate,
		FixedTotal:        fixedTotal,
		GeneralMonthTotal: generalTotal,
		TotalSpent:        spent,
		Available:         available,
		PercentSpent:      pct.Round(core.AmountPlaces),
		PercentAvailable:  decimal.Max(decimal.Zero, hundred.Sub(pct)).Round(core.AmountPlaces),
		State:             Classify(pct),
		Overspend:         decimal.Zero,
	}
	if available.IsNegative() {
		r.OverBudget = true
		r.Overspend = available.Abs()
	}
	return r, nil
}
