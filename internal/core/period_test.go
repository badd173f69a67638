package core

import (
	"testing"
)

func TestNextOccurrence(t *testing.T) {
	cases := []struct {
		name string
		in   Date
		freq Frequency
		want Date
	}{
		{"biweekly adds 15 days", NewDate(2025, 1, 10), Biweekly, NewDate(2025, 1, 25)},
		{"biweekly crosses month", NewDate(2025, 1, 20), Biweekly, NewDate(2025, 2, 4)},
		{"monthly same day", NewDate(2025, 3, 15), Monthly, NewDate(2025, 4, 15)},
		{"monthly crosses year", NewDate(2024, 12, 31), Monthly, NewDate(2025, 1, 31)},
		{"monthly clamps non-leap", NewDate(2025, 1, 31), Monthly, NewDate(2025, 2, 28)},
		{"monthly clamps leap", NewDate(2024, 1, 31), Monthly, NewDate(2024, 2, 29)},
		{"monthly clamps 30 day month", NewDate(2025, 3, 31), Monthly, NewDate(2025, 4, 30)},
		{"unknown falls back to monthly", NewDate(2025, 5, 5), "weekly", NewDate(2025, 6, 5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextOccurrence(tc.in, tc.freq)
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestPeriodWindowEndsAtNextOccurrence(t *testing.T) {
	for _, freq := range []Frequency{Monthly, Biweekly} {
		for d := NewDate(2024, 1, 1); d.Year() == 2024; d = d.AddDays(1) {
			p := PeriodWindow(d, freq)
			if !p.Start.Equal(d) || !p.End.Equal(NextOccurrence(d, freq)) {
				t.Fatalf("%s %s: unexpected window %v", freq, d, p)
			}
			if freq == Biweekly && DaysRemaining(p.End, p.Start) != 15 {
				t.Fatalf("%s: biweekly window must be 15 days", d)
			}
		}
	}
}

func TestPeriodContains(t *testing.T) {
	p := PeriodWindow(NewDate(2025, 1, 1), Biweekly)
	cases := []struct {
		d    Date
		want bool
	}{
		{NewDate(2024, 12, 31), false},
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 1, 10), true},
		{NewDate(2025, 1, 16), true},
		{NewDate(2025, 1, 17), false},
	}
	for _, tc := range cases {
		if got := p.Contains(tc.d); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.d, tc.want, got)
		}
	}
}

func TestDaysRemaining(t *testing.T) {
	today := NewDate(2025, 3, 28)
	cases := []struct {
		target Date
		want   int
	}{
		{NewDate(2025, 3, 28), 0},
		{NewDate(2025, 3, 29), 1},
		{NewDate(2025, 4, 2), 5}, // crosses the March DST switch in many zones
		{NewDate(2025, 3, 20), -8},
	}
	for _, tc := range cases {
		if got := DaysRemaining(tc.target, today); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.target, tc.want, got)
		}
	}
}

func TestStrategyFor(t *testing.T) {
	if _, err := StrategyFor(Monthly); err != nil {
		t.Fatalf("expected monthly strategy, got %v", err)
	}
	if _, err := StrategyFor("yearly"); err == nil {
		t.Fatalf("expected error for unknown frequency")
	}
}
