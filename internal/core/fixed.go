package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize validates a raw fixed expense and fills every derived field.
// Derived fields are always recomputed from service, price, frequency and
// renewal date; calling it twice on the same input yields the same result.
func Normalize(raw RawFixedExpense, today Date) (FixedExpense, error) {
	service := strings.TrimSpace(raw.Service)
	if service == "" {
		return FixedExpense{}, ErrEmptyService
	}
	if len(service) > MaxNameLength {
		return FixedExpense{}, ErrDescriptionTooLong
	}
	price, err := ParseAmount(raw.Price)
	if err != nil {
		return FixedExpense{}, err
	}
	freq, err := ParseFrequency(raw.Frequency)
	if err != nil {
		return FixedExpense{}, err
	}
	if strings.TrimSpace(raw.RenewalDate) == "" {
		return FixedExpense{}, fmt.Errorf("%w: empty renewal date", ErrInvalidDate)
	}
	renewal, err := ParseDate(raw.RenewalDate)
	if err != nil {
		return FixedExpense{}, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}

	return Renormalize(FixedExpense{
		ID:          raw.ID,
		Service:     service,
		Category:    strings.TrimSpace(raw.Category),
		Account:     strings.TrimSpace(raw.Account),
		Price:       price,
		Frequency:   freq,
		RenewalDate: renewal,
	}, today), nil
}

// Renormalize recomputes the derived fields of an already validated expense.
func Renormalize(e FixedExpense, today Date) FixedExpense {
	e.MonthlyCost = MonthlyCost(e.Price, e.Frequency)
	e.AnnualCost = e.MonthlyCost.Mul(decimal.NewFromInt(12))
	e.BiweeklyCost = decimal.Zero
	if e.Frequency == Biweekly {
		e.BiweeklyCost = e.Price
	}
	e.NextRenewal = NextOccurrence(e.RenewalDate, e.Frequency)
	e.DaysRemaining = DaysRemaining(e.NextRenewal, today)
	return e
}

// Raw converts the expense back to its input form.
func (e FixedExpense) Raw() RawFixedExpense {
	return RawFixedExpense{
		ID:          e.ID,
		Service:     e.Service,
		Category:    e.Category,
		Account:     e.Account,
		Price:       e.Price.String(),
		Frequency:   string(e.Frequency),
		RenewalDate: e.RenewalDate.String(),
	}
}

// DerivedEqual reports whether both expenses carry the same derived fields.
func (e FixedExpense) DerivedEqual(o FixedExpense) bool {
	return e.BiweeklyCost.Equal(o.BiweeklyCost) &&
		e.MonthlyCost.Equal(o.MonthlyCost) &&
		e.AnnualCost.Equal(o.AnnualCost) &&
		e.NextRenewal.Equal(o.NextRenewal) &&
		e.DaysRemaining == o.DaysRemaining
}
