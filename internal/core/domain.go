package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Monthly  Frequency = "monthly"
	Biweekly Frequency = "biweekly"
)

// GeneralExpensesLabel is the synthetic category every general expense is
// reported under.
const GeneralExpensesLabel = "Gastos Generales"

type (
	Frequency string

	Category struct {
		Name string `json:"name"`
	}

	// RawFixedExpense is a fixed expense as entered, before normalization.
	RawFixedExpense struct {
		ID          string `json:"id"`
		Service     string `json:"service"`
		Category    string `json:"category"`
		Account     string `json:"account"`
		Price       string `json:"price"`
		Frequency   string `json:"frequency"`
		RenewalDate string `json:"renewal_date"`
	}

	FixedExpense struct {
		ID          string          `json:"id"`
		Service     string          `json:"service"`
		Category    string          `json:"category"`
		Account     string          `json:"account,omitempty"`
		Price       decimal.Decimal `json:"price"`
		Frequency   Frequency       `json:"frequency"`
		RenewalDate Date            `json:"renewal_date"`

		BiweeklyCost  decimal.Decimal `json:"biweekly_cost"`
		MonthlyCost   decimal.Decimal `json:"monthly_cost"`
		AnnualCost    decimal.Decimal `json:"annual_cost"`
		NextRenewal   Date            `json:"next_renewal"`
		DaysRemaining int             `json:"days_remaining"`
	}

	GeneralExpense struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Date        Date            `json:"date"`
		Month       string          `json:"month"` // derived from Date
		Year        int             `json:"year"`  // derived from Date
	}

	SalaryRecord struct {
		ID        string          `json:"id"`
		Amount    decimal.Decimal `json:"amount"`
		Frequency Frequency       `json:"frequency"`
		PayDate   Date            `json:"pay_date"`
	}
)

// ParseFrequency accepts the canonical names and the Spanish aliases
// mensual/quincenal.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "mensual":
		return Monthly, nil
	case "biweekly", "quincenal":
		return Biweekly, nil
	}
	return "", ErrInvalidFrequency
}

func (f Frequency) Validate() error {
	if _, err := StrategyFor(f); err != nil {
		return err
	}
	return nil
}

// NewCategory trims and validates a category name.
func NewCategory(name string) (Category, error) {
	c := Category{Name: strings.TrimSpace(name)}
	return c, c.Validate()
}

func (c Category) Validate() error {
	if c.Name == "" {
		return ErrEmptyCategory
	}
	if len(c.Name) > MaxNameLength {
		return ErrCategoryTooLong
	}
	return nil
}

// DefaultCategories is the set seeded for an owner that has none.
func DefaultCategories() []Category {
	names := []string{
		"Transporte",
		"Vivienda",
		"Alimentación",
		"Servicios",
		"Entretenimiento",
		"Salud",
		"Educación",
		"Otros",
	}
	out := make([]Category, len(names))
	for i, n := range names {
		out[i] = Category{Name: n}
	}
	return out
}

func (s SalaryRecord) Validate() error {
	if !s.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := s.Frequency.Validate(); err != nil {
		return err
	}
	return s.PayDate.Validate()
}

// Period returns the pay window opened by this salary.
func (s SalaryRecord) Period() Period {
	return PeriodWindow(s.PayDate, s.Frequency)
}

// SortSalaries orders salaries by pay date, most recent first. Ties keep
// their relative order.
func SortSalaries(salaries []SalaryRecord) {
	sort.SliceStable(salaries, func(i, j int) bool {
		return salaries[i].PayDate.After(salaries[j].PayDate.Time)
	})
}

// Latest returns the most recent salary, or nil when there is none.
func Latest(salaries []SalaryRecord) *SalaryRecord {
	if len(salaries) == 0 {
		return nil
	}
	sorted := make([]SalaryRecord, len(salaries))
	copy(sorted, salaries)
	SortSalaries(sorted)
	latest := sorted[0]
	return &latest
}

// RawSalaryRecord is a salary as entered.
type RawSalaryRecord struct {
	ID        string `json:"id"`
	Amount    string `json:"amount"`
	Frequency string `json:"frequency"`
	PayDate   string `json:"pay_date"`
}

// NewSalaryRecord parses and validates raw salary input.
func NewSalaryRecord(raw RawSalaryRecord) (SalaryRecord, error) {
	amount, err := ParseAmount(raw.Amount)
	if err != nil {
		return SalaryRecord{}, err
	}
	freq, err := ParseFrequency(raw.Frequency)
	if err != nil {
		return SalaryRecord{}, err
	}
	if strings.TrimSpace(raw.PayDate) == "" {
		return SalaryRecord{}, fmt.Errorf("%w: empty pay date", ErrInvalidDate)
	}
	payDate, err := ParseDate(raw.PayDate)
	if err != nil {
		return SalaryRecord{}, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	s := SalaryRecord{ID: raw.ID, Amount: amount, Frequency: freq, PayDate: payDate}
	return s, s.Validate()
}
