// Package stats summarizes and validates the local bar store.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"marketsync/internal/domain"
)

// Store is the read surface stats needs from the bar store.
type Store interface {
	ListSymbols(ctx context.Context) ([]string, error)
	CountBars(ctx context.Context) (count int, earliest, latest time.Time, err error)
}

// WatermarkReader reports per-symbol sync progress.
type WatermarkReader interface {
	ReadWatermark(ctx context.Context, symbol string) (time.Time, bool, error)
}

// Summary describes the overall state of the store.
type Summary struct {
	Symbols  int
	Bars     int
	Earliest time.Time
	Latest   time.Time
}

func (s Summary) String() string {
	if s.Bars == 0 {
		return "store is empty"
	}
	return fmt.Sprintf("%d symbols, %d bars, %s to %s",
		s.Symbols, s.Bars,
		s.Earliest.Format(domain.DateFormat), s.Latest.Format(domain.DateFormat))
}

// Collect reads the store-wide summary.
func Collect(ctx context.Context, st Store) (Summary, error) {
	symbols, err := st.ListSymbols(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("listing symbols: %w", err)
	}
	count, earliest, latest, err := st.CountBars(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("counting bars: %w", err)
	}
	return Summary{
		Symbols:  len(symbols),
		Bars:     count,
		Earliest: earliest,
		Latest:   latest,
	}, nil
}

// Stale is a symbol whose sync progress lags the expected date.
type Stale struct {
	Symbol     string
	LastSynced time.Time
}

// Report is the result of validating a symbol universe against the store.
type Report struct {
	Universe int
	Covered  int
	Missing  []string // in the universe, no data at all
	Stale    []Stale  // synced, but behind asOf
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d symbols covered", r.Covered, r.Universe)
	if len(r.Missing) > 0 {
		fmt.Fprintf(&b, ", %d missing", len(r.Missing))
	}
	if len(r.Stale) > 0 {
		fmt.Fprintf(&b, ", %d stale", len(r.Stale))
	}
	return b.String()
}

// Validate checks every universe symbol against the store: symbols with no
// bars at all land in Missing, symbols whose watermark is before asOf land
// in Stale. Both lists come back sorted.
func Validate(ctx context.Context, st Store, marks WatermarkReader, universe []string, asOf time.Time) (Report, error) {
	stored, err := st.ListSymbols(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("listing symbols: %w", err)
	}
	have := make(map[string]struct{}, len(stored))
	for _, s := range stored {
		have[s] = struct{}{}
	}

	r := Report{Universe: len(universe)}
	for _, sym := range universe {
		if _, ok := have[sym]; !ok {
			r.Missing = append(r.Missing, sym)
			continue
		}
		r.Covered++

		mark, synced, err := marks.ReadWatermark(ctx, sym)
		if err != nil {
			return Report{}, fmt.Errorf("reading watermark for %s: %w", sym, err)
		}
		if !synced || mark.Before(asOf) {
			r.Stale = append(r.Stale, Stale{Symbol: sym, LastSynced: mark})
		}
	}

	sort.Strings(r.Missing)
	sort.Slice(r.Stale, func(i, j int) bool { return r.Stale[i].Symbol < r.Stale[j].Symbol })
	return r, nil
}
