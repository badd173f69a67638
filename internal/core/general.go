package core

import (
	"fmt"
	"strings"
)

// RawGeneralExpense is a general expense as entered. Either Date is set, or
// Month and Year are, in which case the expense lands on the 1st of that month.
type RawGeneralExpense struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Date        string `json:"date"`
	Month       string `json:"month"`
	Year        int    `json:"year"`
}

// NewGeneralExpense validates raw input and derives month and year.
func NewGeneralExpense(raw RawGeneralExpense) (GeneralExpense, error) {
	desc := strings.TrimSpace(raw.Description)
	if desc == "" {
		return GeneralExpense{}, ErrEmptyDescription
	}
	if len(desc) > MaxNameLength {
		return GeneralExpense{}, ErrDescriptionTooLong
	}
	price, err := ParseAmount(raw.Price)
	if err != nil {
		return GeneralExpense{}, err
	}

	var date Date
	switch {
	case strings.TrimSpace(raw.Date) != "":
		date, err = ParseDate(raw.Date)
		if err != nil {
			return GeneralExpense{}, fmt.Errorf("%w: %w", ErrInvalidDate, err)
		}
	case strings.TrimSpace(raw.Month) != "":
		m, err := MonthNumber(raw.Month)
		if err != nil {
			return GeneralExpense{}, err
		}
		date, err = FirstOfMonth(raw.Year, m)
		if err != nil {
			return GeneralExpense{}, err
		}
	default:
		return GeneralExpense{}, fmt.Errorf("%w: date or month is required", ErrInvalidDate)
	}

	e := GeneralExpense{ID: raw.ID, Description: desc, Price: price, Date: date}
	e.Sync()
	return e, nil
}

// Sync recomputes Month and Year from Date.
func (e *GeneralExpense) Sync() {
	e.Month = e.Date.MonthName()
	e.Year = e.Date.Year()
}

// InMonth reports whether the expense's derived month and year match d's.
func (e GeneralExpense) InMonth(d Date) bool {
	return e.Month == d.MonthName() && e.Year == d.Year()
}
