package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"marketsync/internal/config"
	"marketsync/internal/store"
	"marketsync/internal/util"
)

// marketsync-export copies daily bars from the SQLite store into the parquet
// archive, one file per symbol per year.
func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (default: everything in the store)")
	flag.Parse()

	_ = godotenv.Load()

	cfgPath := "config/marketsync.yaml"
	if p := os.Getenv("MARKETSYNC_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	var symbols []string
	if *symbolsFlag != "" {
		for _, s := range strings.Split(*symbolsFlag, ",") {
			symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
		}
	} else {
		symbols, err = st.ListSymbols(ctx)
		if err != nil {
			log.Fatalf("failed to list symbols: %v", err)
		}
	}
	if len(symbols) == 0 {
		log.Fatal("nothing to export")
	}

	_, earliest, latest, err := st.CountBars(ctx)
	if err != nil {
		log.Fatalf("failed to read store bounds: %v", err)
	}

	exporter := store.NewParquetExporter(cfg.Storage.DataDir)
	total := 0
	for _, sym := range symbols {
		bars, err := st.ReadBars(ctx, sym, earliest, latest)
		if err != nil {
			log.Fatalf("failed to read bars for %s: %v", sym, err)
		}
		if len(bars) == 0 {
			slog.Warn("no bars to export", "symbol", sym)
			continue
		}
		n, err := exporter.ExportBars(bars)
		if err != nil {
			log.Fatalf("failed to export %s: %v", sym, err)
		}
		slog.Info("exported", "symbol", sym, "records", n)
		total += n
	}
	slog.Info("export finished", "symbols", len(symbols), "records", total)
}
