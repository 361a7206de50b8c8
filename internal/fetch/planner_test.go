package fetch

import (
	"testing"
	"time"

	"marketsync/internal/calendar"
	"marketsync/internal/domain"
)

func TestPlanBatchesJanuary2024(t *testing.T) {
	cal := calendar.NewUSCalendar()
	start := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.January, 31)

	batches := PlanBatches(cal, start, end)
	if len(batches) == 0 {
		t.Fatal("expected batches for January 2024")
	}

	// The union of batch days must equal the trading days of the range,
	// non-overlapping and chronologically increasing.
	var covered []time.Time
	for i, b := range batches {
		if b.Start.After(b.End) {
			t.Fatalf("batch %d: start after end", i)
		}
		if i > 0 && !b.Start.After(batches[i-1].End) {
			t.Fatalf("batch %d overlaps or precedes batch %d", i, i-1)
		}

		days := cal.TradingDays(b.Start, b.End)
		if len(days) == 0 || len(days) > 5 {
			t.Fatalf("batch %d has %d trading days, want 1..5", i, len(days))
		}
		if !days[0].Equal(b.Start) || !days[len(days)-1].Equal(b.End) {
			t.Fatalf("batch %d bounds %s..%s are not trading days",
				i, b.Start.Format(domain.DateFormat), b.End.Format(domain.DateFormat))
		}

		// No batch may mix two calendar weeks.
		sy, sw := b.Start.ISOWeek()
		ey, ew := b.End.ISOWeek()
		if sy != ey || sw != ew {
			t.Fatalf("batch %d spans ISO weeks %d/%d and %d/%d", i, sy, sw, ey, ew)
		}

		covered = append(covered, days...)
	}

	want := cal.TradingDays(start, end)
	if len(covered) != len(want) {
		t.Fatalf("batches cover %d trading days, want %d", len(covered), len(want))
	}
	for i := range want {
		if !covered[i].Equal(want[i]) {
			t.Fatalf("covered[%d] = %s, want %s",
				i, covered[i].Format(domain.DateFormat), want[i].Format(domain.DateFormat))
		}
	}
}

func TestPlanBatchesSingleWeek(t *testing.T) {
	cal := calendar.NewUSCalendar()

	// 2024-01-08 .. 2024-01-12 is a full trading week.
	batches := PlanBatches(cal, domain.Date(2024, time.January, 8), domain.Date(2024, time.January, 12))
	if len(batches) != 1 {
		t.Fatalf("got %d batches for one trading week, want 1", len(batches))
	}
	if !batches[0].Start.Equal(domain.Date(2024, time.January, 8)) ||
		!batches[0].End.Equal(domain.Date(2024, time.January, 12)) {
		t.Errorf("batch = %s..%s, want 2024-01-08..2024-01-12",
			batches[0].Start.Format(domain.DateFormat), batches[0].End.Format(domain.DateFormat))
	}
}

func TestPlanBatchesEmpty(t *testing.T) {
	cal := calendar.NewUSCalendar()

	// start > end: already up to date.
	if got := PlanBatches(cal, domain.Date(2024, time.January, 10), domain.Date(2024, time.January, 5)); got != nil {
		t.Errorf("inverted range produced %d batches, want none", len(got))
	}

	// Weekend only: zero trading days is not an error, just nothing to do.
	if got := PlanBatches(cal, domain.Date(2024, time.January, 6), domain.Date(2024, time.January, 7)); got != nil {
		t.Errorf("weekend range produced %d batches, want none", len(got))
	}
}

func TestPlanBatchesHolidayWeek(t *testing.T) {
	cal := calendar.NewUSCalendar()

	// Week of 2024-01-01: New Year's Day is a holiday, so the first batch is
	// Tue..Fri only.
	batches := PlanBatches(cal, domain.Date(2024, time.January, 1), domain.Date(2024, time.January, 5))
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	if !batches[0].Start.Equal(domain.Date(2024, time.January, 2)) {
		t.Errorf("batch start = %s, want 2024-01-02 (holiday trimmed)",
			batches[0].Start.Format(domain.DateFormat))
	}
}
