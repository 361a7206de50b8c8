package calendar

import (
	"testing"
	"time"

	"marketsync/internal/domain"
)

func TestIsTradingDay(t *testing.T) {
	cal := NewUSCalendar()

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"regular weekday", domain.Date(2024, time.January, 3), true},
		{"saturday", domain.Date(2024, time.January, 6), false},
		{"sunday", domain.Date(2024, time.January, 7), false},
		{"new years day", domain.Date(2024, time.January, 1), false},
		{"thanksgiving 2024", domain.Date(2024, time.November, 28), false},
		{"juneteenth 2024", domain.Date(2024, time.June, 19), false},
		{"day after thanksgiving", domain.Date(2024, time.November, 29), true},
	}

	for _, tt := range tests {
		if got := cal.IsTradingDay(tt.date); got != tt.want {
			t.Errorf("%s: IsTradingDay(%s) = %v, want %v",
				tt.name, tt.date.Format(domain.DateFormat), got, tt.want)
		}
	}
}

func TestNextPrevTradingDay(t *testing.T) {
	cal := NewUSCalendar()

	// Saturday 2024-01-06 → next open day is Monday 2024-01-08.
	next := cal.NextTradingDay(domain.Date(2024, time.January, 6))
	if !next.Equal(domain.Date(2024, time.January, 8)) {
		t.Errorf("NextTradingDay = %s, want 2024-01-08", next.Format(domain.DateFormat))
	}

	// Sunday 2024-01-07 → previous open day is Friday 2024-01-05.
	prev := cal.PrevTradingDay(domain.Date(2024, time.January, 7))
	if !prev.Equal(domain.Date(2024, time.January, 5)) {
		t.Errorf("PrevTradingDay = %s, want 2024-01-05", prev.Format(domain.DateFormat))
	}

	// A trading day maps to itself in both directions.
	day := domain.Date(2024, time.March, 6)
	if !cal.NextTradingDay(day).Equal(day) || !cal.PrevTradingDay(day).Equal(day) {
		t.Error("trading day should map to itself")
	}
}

func TestAdjustRange(t *testing.T) {
	cal := NewUSCalendar()

	// Weekend-bounded range clamps inward.
	start, end, err := cal.AdjustRange(domain.Date(2024, time.January, 6), domain.Date(2024, time.January, 14))
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(domain.Date(2024, time.January, 8)) {
		t.Errorf("adjusted start = %s, want 2024-01-08", start.Format(domain.DateFormat))
	}
	if !end.Equal(domain.Date(2024, time.January, 12)) {
		t.Errorf("adjusted end = %s, want 2024-01-12", end.Format(domain.DateFormat))
	}

	// A weekend-only range has no trading days.
	if _, _, err := cal.AdjustRange(domain.Date(2024, time.January, 6), domain.Date(2024, time.January, 7)); err == nil {
		t.Error("expected error for weekend-only range")
	}
}

func TestTradingDaysJanuary2024(t *testing.T) {
	cal := NewUSCalendar()

	days := cal.TradingDays(domain.Date(2024, time.January, 1), domain.Date(2024, time.January, 31))

	// January 2024: 23 weekdays minus New Year's Day and MLK Day.
	if len(days) != 21 {
		t.Fatalf("got %d trading days in January 2024, want 21", len(days))
	}

	for i := 1; i < len(days); i++ {
		if !days[i].After(days[i-1]) {
			t.Fatalf("trading days not strictly increasing at index %d", i)
		}
	}

	if !days[0].Equal(domain.Date(2024, time.January, 2)) {
		t.Errorf("first trading day = %s, want 2024-01-02", days[0].Format(domain.DateFormat))
	}
	if !days[len(days)-1].Equal(domain.Date(2024, time.January, 31)) {
		t.Errorf("last trading day = %s, want 2024-01-31", days[len(days)-1].Format(domain.DateFormat))
	}
}
