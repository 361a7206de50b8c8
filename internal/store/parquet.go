package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"marketsync/internal/domain"
)

// BarRecord is the Parquet schema for archived daily bars.
type BarRecord struct {
	Symbol        string  `parquet:"symbol"`
	Date          string  `parquet:"date"` // YYYY-MM-DD
	Open          float64 `parquet:"open"`
	High          float64 `parquet:"high"`
	Low           float64 `parquet:"low"`
	Close         float64 `parquet:"close"`
	Volume        int64   `parquet:"volume"`
	PERatio       float64 `parquet:"pe_ratio"`
	MarketCap     float64 `parquet:"market_cap"`
	DividendYield float64 `parquet:"dividend_yield"`
}

// ParquetExporter archives daily bars as Parquet files, one file per symbol
// and year:
//
//	<DataDir>/daily/<SYMBOL>/<YYYY>.parquet
type ParquetExporter struct {
	DataDir string
}

// NewParquetExporter creates a ParquetExporter rooted at dataDir.
func NewParquetExporter(dataDir string) *ParquetExporter {
	return &ParquetExporter{DataDir: dataDir}
}

// ExportBars writes bars grouped by symbol and year, replacing any existing
// files for those groups. It returns the number of files written.
func (e *ParquetExporter) ExportBars(bars []domain.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		k := key{symbol: b.Symbol, year: b.Date.Year()}
		groups[k] = append(groups[k], BarRecord{
			Symbol:        b.Symbol,
			Date:          b.Date.Format(domain.DateFormat),
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			Volume:        b.Volume,
			PERatio:       b.PERatio,
			MarketCap:     b.MarketCap,
			DividendYield: b.DividendYield,
		})
	}

	written := 0
	for k, records := range groups {
		dir := filepath.Join(e.DataDir, "daily", k.symbol)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return written, fmt.Errorf("creating %s: %w", dir, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%04d.parquet", k.year))
		if err := parquet.WriteFile(path, records); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written++
	}
	return written, nil
}

// ReadSymbolYear reads back one archived symbol-year file. Used by the export
// command's verification pass and by tests.
func (e *ParquetExporter) ReadSymbolYear(symbol string, year int) ([]BarRecord, error) {
	path := filepath.Join(e.DataDir, "daily", symbol, fmt.Sprintf("%04d.parquet", year))
	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}
