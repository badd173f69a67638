// This file implements the Strategy Pattern for pay and renewal periods.
// Each frequency owns the rule that advances a date to its next occurrence
// and the factor that scales a single charge to a monthly cost.

package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStrategy is the per-frequency rule set.
type PeriodStrategy interface {
	// Next returns the next occurrence after d.
	Next(d Date) Date
	// PerMonth is how many charges of this frequency fall in one month.
	PerMonth() int64
}

// MonthlyStrategy advances one calendar month, clamping the day to the last
// day of the target month.
type MonthlyStrategy struct{}

func (MonthlyStrategy) Next(d Date) Date {
	year, month := d.Year(), time.Month(d.Month())+1
	if month > time.December {
		year, month = year+1, time.January
	}
	day := d.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return NewDate(year, int(month), day)
}

func (MonthlyStrategy) PerMonth() int64 { return 1 }

// BiweeklyStrategy advances a fixed 15 days (one quincena).
type BiweeklyStrategy struct{}

func (BiweeklyStrategy) Next(d Date) Date { return d.AddDays(15) }

func (BiweeklyStrategy) PerMonth() int64 { return 2 }

var periodStrategies = map[Frequency]PeriodStrategy{
	Monthly:  MonthlyStrategy{},
	Biweekly: BiweeklyStrategy{},
}

// StrategyFor returns the strategy registered for f.
func StrategyFor(f Frequency) (PeriodStrategy, error) {
	s, ok := periodStrategies[f]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrInvalidFrequency, f)
	}
	return s, nil
}

// strategyOrMonthly treats anything that is not a known frequency as monthly.
func strategyOrMonthly(f Frequency) PeriodStrategy {
	if s, ok := periodStrategies[f]; ok {
		return s
	}
	return MonthlyStrategy{}
}

// Period is a closed pay window: both Start and End belong to it.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d lies in [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// NextOccurrence advances d by one period of frequency f.
func NextOccurrence(d Date, f Frequency) Date {
	return strategyOrMonthly(f).Next(d)
}

// PeriodWindow is the window opened on payDate; it ends on the next occurrence.
func PeriodWindow(payDate Date, f Frequency) Period {
	return Period{Start: payDate, End: NextOccurrence(payDate, f)}
}

// MonthlyCost scales a single charge of frequency f to a monthly cost.
func MonthlyCost(price decimal.Decimal, f Frequency) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(strategyOrMonthly(f).PerMonth()))
}
