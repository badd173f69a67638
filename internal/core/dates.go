package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// All dates sit at noon UTC so differences never straddle a day boundary.
const normalHour = 12

type Date struct {
	time.Time
}

var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// NewDate creates a normalized date from year, month, day. Out of range
// values roll over the way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, normalHour, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. A trailing time component, as sent
// by some clients, is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i == len(DateLayout) {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q", ErrMalformedDate, s)
	}
	return DateOf(t), nil
}

// FirstOfMonth returns the first day of the given month and year.
func FirstOfMonth(year, month int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, ErrInvalidMonth
	}
	if year < 1 {
		return Date{}, ErrInvalidDate
	}
	return NewDate(year, month, 1), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// MonthName returns the lower-case Spanish name of the date's month.
func (d Date) MonthName() string {
	return MonthName(d.Month())
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time.AddDate(0, 0, n))
}

func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDate, err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthName returns the Spanish name of month m (1-12), or "" when out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// MonthNumber resolves a Spanish month name or a number 1-12 to its number.
func MonthNumber(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range monthNames {
		if n == s {
			return i + 1, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n, nil
	}
	return 0, ErrInvalidMonth
}

// DaysRemaining is the whole number of days from today to target, rounded
// up. It is negative once target has passed.
func DaysRemaining(target, today Date) int {
	diff := DateOf(target.Time).Sub(DateOf(today.Time).Time)
	return int(math.Ceil(diff.Hours() / 24))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, normalHour, 0, 0, 0, time.UTC).Day()
}
