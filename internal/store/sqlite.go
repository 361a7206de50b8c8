package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketsync/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ BarStore = (*SQLiteStore)(nil)
var _ WatermarkStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS daily_bars (
	symbol          TEXT NOT NULL,
	date            TEXT NOT NULL,
	open            REAL NOT NULL,
	high            REAL NOT NULL,
	low             REAL NOT NULL,
	close           REAL NOT NULL,
	volume          INTEGER NOT NULL DEFAULT 0,
	pe_ratio        REAL,
	market_cap      REAL,
	dividend_yield  REAL,
	PRIMARY KEY (symbol, date)
);

CREATE TABLE IF NOT EXISTS sync_progress (
	symbol       TEXT PRIMARY KEY,
	last_synced  TEXT NOT NULL
);
`

// SQLiteStore implements BarStore and WatermarkStore backed by a SQLite
// database. WAL mode allows workers to upsert different symbols
// concurrently.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars upserts bars in a single transaction and returns the number of
// rows written.
func (s *SQLiteStore) WriteBars(ctx context.Context, bars []domain.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_bars
			(symbol, date, open, high, low, close, volume, pe_ratio, market_cap, dividend_yield)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			pe_ratio = excluded.pe_ratio,
			market_cap = excluded.market_cap,
			dividend_yield = excluded.dividend_yield`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, b := range bars {
		_, err := stmt.ExecContext(ctx,
			b.Symbol,
			b.Date.Format(domain.DateFormat),
			b.Open, b.High, b.Low, b.Close, b.Volume,
			nullable(b.PERatio), nullable(b.MarketCap), nullable(b.DividendYield),
		)
		if err != nil {
			return 0, fmt.Errorf("upserting bar %s %s: %w",
				b.Symbol, b.Date.Format(domain.DateFormat), err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing bars: %w", err)
	}
	return written, nil
}

// ReadBars returns bars for the symbol within [start, end], oldest first.
func (s *SQLiteStore) ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume, pe_ratio, market_cap, dividend_yield
		FROM daily_bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		symbol, start.Format(domain.DateFormat), end.Format(domain.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("querying bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var (
			b       domain.Bar
			dateStr string
			pe, mc, dy sql.NullFloat64
		)
		if err := rows.Scan(&b.Symbol, &dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &pe, &mc, &dy); err != nil {
			return nil, fmt.Errorf("scanning bar: %w", err)
		}
		b.Date, err = time.Parse(domain.DateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing stored date %q: %w", dateStr, err)
		}
		b.PERatio = pe.Float64
		b.MarketCap = mc.Float64
		b.DividendYield = dy.Float64
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ListSymbols returns all distinct symbols with stored bars, sorted.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM daily_bars ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("listing symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scanning symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// CountBars returns the total number of stored bars and, when any exist, the
// earliest and latest dates present.
func (s *SQLiteStore) CountBars(ctx context.Context) (count int, earliest, latest time.Time, err error) {
	var minDate, maxDate sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(date), MAX(date) FROM daily_bars`).
		Scan(&count, &minDate, &maxDate)
	if err != nil {
		return 0, time.Time{}, time.Time{}, fmt.Errorf("counting bars: %w", err)
	}
	if minDate.Valid {
		if earliest, err = time.Parse(domain.DateFormat, minDate.String); err != nil {
			return 0, time.Time{}, time.Time{}, fmt.Errorf("parsing earliest date: %w", err)
		}
	}
	if maxDate.Valid {
		if latest, err = time.Parse(domain.DateFormat, maxDate.String); err != nil {
			return 0, time.Time{}, time.Time{}, fmt.Errorf("parsing latest date: %w", err)
		}
	}
	return count, earliest, latest, nil
}

// ---------------------------------------------------------------------------
// WatermarkStore implementation
// ---------------------------------------------------------------------------

// ReadWatermark returns the symbol's last synced date, with ok=false when the
// symbol has never been synced.
func (s *SQLiteStore) ReadWatermark(ctx context.Context, symbol string) (time.Time, bool, error) {
	var dateStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_synced FROM sync_progress WHERE symbol = ?`, symbol).
		Scan(&dateStr)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading watermark for %s: %w", symbol, err)
	}

	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing watermark %q for %s: %w", dateStr, symbol, err)
	}
	return date, true, nil
}

// WriteWatermark records date as the symbol's last synced date.
func (s *SQLiteStore) WriteWatermark(ctx context.Context, symbol string, date time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_progress (symbol, last_synced) VALUES (?, ?)
		ON CONFLICT (symbol) DO UPDATE SET last_synced = excluded.last_synced`,
		symbol, date.Format(domain.DateFormat))
	if err != nil {
		return fmt.Errorf("writing watermark for %s: %w", symbol, err)
	}
	return nil
}

// nullable converts a zero float into a SQL NULL, preserving "not reported"
// through storage round trips.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}
