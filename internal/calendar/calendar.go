// Package calendar answers trading-day questions for the US equity market.
// It combines a weekday check with a table of exchange holidays, so it works
// offline and deterministically for the date range the collector covers.
package calendar

import (
	"fmt"
	"time"

	"marketsync/internal/domain"
)

// usHolidays lists NYSE full-closure days. Half-days are treated as trading
// days since daily bars are still published for them.
var usHolidays = []string{
	// New Year's Day (observed)
	"2020-01-01", "2021-01-01", "2022-01-03", "2023-01-02", "2024-01-01", "2025-01-01", "2026-01-01",
	// Martin Luther King Jr. Day
	"2020-01-20", "2021-01-18", "2022-01-17", "2023-01-16", "2024-01-15", "2025-01-20", "2026-01-19",
	// Presidents Day
	"2020-02-17", "2021-02-15", "2022-02-21", "2023-02-20", "2024-02-19", "2025-02-17", "2026-02-16",
	// Good Friday
	"2020-04-10", "2021-04-02", "2022-04-15", "2023-04-07", "2024-03-29", "2025-04-18", "2026-04-03",
	// Memorial Day
	"2020-05-25", "2021-05-31", "2022-05-30", "2023-05-29", "2024-05-27", "2025-05-26", "2026-05-25",
	// Juneteenth (observed since 2021)
	"2021-06-19", "2022-06-20", "2023-06-19", "2024-06-19", "2025-06-19", "2026-06-19",
	// Independence Day (observed)
	"2020-07-03", "2021-07-05", "2022-07-04", "2023-07-04", "2024-07-04", "2025-07-04", "2026-07-03",
	// Labor Day
	"2020-09-07", "2021-09-06", "2022-09-05", "2023-09-04", "2024-09-02", "2025-09-01", "2026-09-07",
	// Thanksgiving
	"2020-11-26", "2021-11-25", "2022-11-24", "2023-11-23", "2024-11-28", "2025-11-27", "2026-11-26",
	// Christmas (observed)
	"2020-12-25", "2021-12-24", "2022-12-26", "2023-12-25", "2024-12-25", "2025-12-25", "2026-12-25",
}

// Calendar reports whether a given date is a trading day and finds the
// nearest trading day in either direction.
type Calendar struct {
	holidays map[string]struct{}
}

// NewUSCalendar creates a Calendar loaded with the built-in NYSE holiday
// table.
func NewUSCalendar() *Calendar {
	holidays := make(map[string]struct{}, len(usHolidays))
	for _, h := range usHolidays {
		holidays[h] = struct{}{}
	}
	return &Calendar{holidays: holidays}
}

// IsTradingDay reports whether date falls on an open market day. Only the
// calendar day matters; the time of day is ignored.
func (c *Calendar) IsTradingDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[date.Format(domain.DateFormat)]
	return !holiday
}

// NextTradingDay returns the first trading day on or after date.
func (c *Calendar) NextTradingDay(date time.Time) time.Time {
	d := domain.Midnight(date)
	// A week is the longest possible closure run in practice; 10 days gives
	// headroom for a holiday adjoining a weekend.
	for i := 0; i < 10; i++ {
		if c.IsTradingDay(d) {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PrevTradingDay returns the last trading day on or before date.
func (c *Calendar) PrevTradingDay(date time.Time) time.Time {
	d := domain.Midnight(date)
	for i := 0; i < 10; i++ {
		if c.IsTradingDay(d) {
			return d
		}
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// AdjustRange clamps a requested range to trading days: the start moves
// forward and the end moves backward to the nearest open day. It returns an
// error when the range contains no trading days at all.
func (c *Calendar) AdjustRange(start, end time.Time) (time.Time, time.Time, error) {
	adjStart := c.NextTradingDay(start)
	adjEnd := c.PrevTradingDay(end)
	if adjStart.After(adjEnd) {
		return time.Time{}, time.Time{}, fmt.Errorf("no trading days between %s and %s",
			start.Format(domain.DateFormat), end.Format(domain.DateFormat))
	}
	return adjStart, adjEnd, nil
}

// TradingDays returns every trading day in [start, end], oldest first.
func (c *Calendar) TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := domain.Midnight(start); !d.After(domain.Midnight(end)); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}
