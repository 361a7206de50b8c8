// Package store persists daily bars and per-symbol sync watermarks.
package store

import (
	"context"
	"time"

	"marketsync/internal/domain"
)

// BarStore persists and retrieves daily OHLC bars. Implementations must be
// safe for concurrent writes to different symbols; the engine guarantees a
// symbol is only ever written by one worker at a time.
type BarStore interface {
	// WriteBars upserts a batch of bars and returns the number of records
	// written. Re-writing an existing (symbol, date) row is not an error.
	WriteBars(ctx context.Context, bars []domain.Bar) (int, error)

	// ReadBars returns bars for the symbol within [start, end], oldest first.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars, sorted.
	ListSymbols(ctx context.Context) ([]string, error)
}

// WatermarkStore tracks the last date for which each symbol's data is known
// to be durably persisted. The engine writes the watermark only after the
// corresponding bars are stored, never ahead of them.
type WatermarkStore interface {
	// ReadWatermark returns the symbol's watermark. ok is false when the
	// symbol has never been synced.
	ReadWatermark(ctx context.Context, symbol string) (date time.Time, ok bool, err error)

	// WriteWatermark records date as the symbol's last synced date.
	WriteWatermark(ctx context.Context, symbol string, date time.Time) error
}
