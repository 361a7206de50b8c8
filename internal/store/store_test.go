package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"marketsync/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testBars(symbol string, dates ...time.Time) []domain.Bar {
	bars := make([]domain.Bar, 0, len(dates))
	for i, d := range dates {
		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Date:   d,
			Open:   100 + float64(i),
			High:   101 + float64(i),
			Low:    99 + float64(i),
			Close:  100.5 + float64(i),
			Volume: 1000,
		})
	}
	return bars
}

func TestWriteReadBars(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dates := []time.Time{
		domain.Date(2024, time.January, 2),
		domain.Date(2024, time.January, 3),
		domain.Date(2024, time.January, 4),
	}

	n, err := s.WriteBars(ctx, testBars("AAPL", dates...))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("WriteBars returned %d, want 3", n)
	}

	got, err := s.ReadBars(ctx, "AAPL", dates[0], dates[2])
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadBars returned %d bars, want 3", len(got))
	}
	for i, b := range got {
		if !b.Date.Equal(dates[i]) {
			t.Errorf("bar %d date = %s, want %s",
				i, b.Date.Format(domain.DateFormat), dates[i].Format(domain.DateFormat))
		}
	}

	// Range query excludes dates outside the window.
	partial, err := s.ReadBars(ctx, "AAPL", dates[1], dates[2])
	if err != nil {
		t.Fatal(err)
	}
	if len(partial) != 2 {
		t.Errorf("partial ReadBars returned %d bars, want 2", len(partial))
	}
}

func TestWriteBarsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	date := domain.Date(2024, time.March, 5)
	if _, err := s.WriteBars(ctx, testBars("MSFT", date)); err != nil {
		t.Fatal(err)
	}

	// Rewrite the same (symbol, date) with a different close.
	updated := testBars("MSFT", date)
	updated[0].Close = 999
	if _, err := s.WriteBars(ctx, updated); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadBars(ctx, "MSFT", date, date)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("upsert produced %d rows, want 1", len(got))
	}
	if got[0].Close != 999 {
		t.Errorf("close = %v after upsert, want 999", got[0].Close)
	}
}

func TestFundamentalsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	date := domain.Date(2024, time.June, 3)
	bar := domain.Bar{
		Symbol: "KO", Date: date,
		Open: 60, High: 61, Low: 59.5, Close: 60.2, Volume: 500,
		PERatio: 24.1, MarketCap: 2.6e11, DividendYield: 3.1,
	}
	if _, err := s.WriteBars(ctx, []domain.Bar{bar}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadBars(ctx, "KO", date, date)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].PERatio != 24.1 || got[0].MarketCap != 2.6e11 || got[0].DividendYield != 3.1 {
		t.Errorf("fundamentals did not round-trip: %+v", got[0])
	}
}

func TestListSymbols(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := domain.Date(2024, time.January, 2)
	for _, sym := range []string{"MSFT", "AAPL", "GOOG"} {
		if _, err := s.WriteBars(ctx, testBars(sym, d)); err != nil {
			t.Fatal(err)
		}
	}

	symbols, err := s.ListSymbols(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"AAPL", "GOOG", "MSFT"}
	if len(symbols) != len(want) {
		t.Fatalf("ListSymbols returned %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbols[%d] = %q, want %q (sorted)", i, symbols[i], want[i])
		}
	}
}

func TestWatermark(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.ReadWatermark(ctx, "AAPL"); err != nil || ok {
		t.Fatalf("unsynced symbol: ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	d1 := domain.Date(2024, time.January, 5)
	if err := s.WriteWatermark(ctx, "AAPL", d1); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.ReadWatermark(ctx, "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !got.Equal(d1) {
		t.Errorf("watermark = %v ok=%v, want %v ok=true", got, ok, d1)
	}

	// Advancing overwrites.
	d2 := domain.Date(2024, time.January, 12)
	if err := s.WriteWatermark(ctx, "AAPL", d2); err != nil {
		t.Fatal(err)
	}
	got, _, err = s.ReadWatermark(ctx, "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(d2) {
		t.Errorf("advanced watermark = %v, want %v", got, d2)
	}
}

func TestCountBars(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, _, _, err := s.CountBars(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("empty store count = %d, want 0", count)
	}

	dates := []time.Time{
		domain.Date(2024, time.January, 2),
		domain.Date(2024, time.February, 1),
	}
	if _, err := s.WriteBars(ctx, testBars("AAPL", dates...)); err != nil {
		t.Fatal(err)
	}

	count, earliest, latest, err := s.CountBars(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if !earliest.Equal(dates[0]) || !latest.Equal(dates[1]) {
		t.Errorf("range = %v..%v, want %v..%v", earliest, latest, dates[0], dates[1])
	}
}

func TestParquetExport(t *testing.T) {
	dir := t.TempDir()
	exp := NewParquetExporter(dir)

	bars := append(
		testBars("AAPL", domain.Date(2023, time.December, 29), domain.Date(2024, time.January, 2)),
		testBars("MSFT", domain.Date(2024, time.January, 2))...,
	)

	// AAPL spans two years, MSFT one: three files.
	n, err := exp.ExportBars(bars)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("ExportBars wrote %d files, want 3", n)
	}

	records, err := exp.ReadSymbolYear("AAPL", 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("AAPL 2024 has %d records, want 1", len(records))
	}
	if records[0].Date != "2024-01-02" {
		t.Errorf("record date = %q, want 2024-01-02", records[0].Date)
	}
}
