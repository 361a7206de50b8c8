package fetch

import (
	"time"
)

// Batch is one trading-week-bounded unit of fetch+persist work: an inclusive
// span whose Start and End are both trading days in the same ISO week. A
// failed batch therefore costs at most one week of refetching.
type Batch struct {
	Start time.Time
	End   time.Time
}

// Calendar is the subset of the market calendar the engine consumes.
// *calendar.Calendar satisfies it.
type Calendar interface {
	IsTradingDay(date time.Time) bool
	NextTradingDay(date time.Time) time.Time
	TradingDays(start, end time.Time) []time.Time
	AdjustRange(start, end time.Time) (time.Time, time.Time, error)
}

// PlanBatches splits [start, end] into week-aligned batches covering exactly
// the trading days in the range, oldest first. Each batch holds the trading
// days of one ISO week (at most five), so batches never straddle a weekend.
// A range with no trading days, or with start after end, yields nil.
func PlanBatches(cal Calendar, start, end time.Time) []Batch {
	if start.After(end) {
		return nil
	}

	days := cal.TradingDays(start, end)
	if len(days) == 0 {
		return nil
	}

	var batches []Batch
	cur := Batch{Start: days[0], End: days[0]}
	curYear, curWeek := days[0].ISOWeek()

	for _, d := range days[1:] {
		year, week := d.ISOWeek()
		if year == curYear && week == curWeek {
			cur.End = d
			continue
		}
		batches = append(batches, cur)
		cur = Batch{Start: d, End: d}
		curYear, curWeek = year, week
	}
	return append(batches, cur)
}
