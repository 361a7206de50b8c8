// Package domain defines the core data types shared across the collection
// engine, stores, and commands.
package domain

import "time"

// DateFormat is the canonical date layout used throughout the system.
const DateFormat = "2006-01-02"

// Bar is one daily OHLC record for a symbol, optionally carrying the
// fundamental figures the remote source reports alongside prices. A zero
// value in PERatio, MarketCap, or DividendYield means "not reported".
type Bar struct {
	Symbol        string
	Date          time.Time // UTC midnight
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        int64
	PERatio       float64
	MarketCap     float64
	DividendYield float64
}

// DateRange is an inclusive calendar span. It is not trading-day-filtered;
// the batch planner consults the market calendar for that.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the range is non-empty (Start <= End).
func (r DateRange) IsValid() bool {
	return !r.Start.After(r.End)
}

// Date builds a UTC-midnight time for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Midnight truncates t to UTC midnight of the same calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
