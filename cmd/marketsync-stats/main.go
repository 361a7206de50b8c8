package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"marketsync/internal/config"
	"marketsync/internal/domain"
	"marketsync/internal/stats"
	"marketsync/internal/store"
	"marketsync/internal/universe"
	"marketsync/internal/util"
)

func main() {
	validate := flag.Bool("validate", false, "check universe coverage against the store")
	asOfFlag := flag.String("as-of", "", "expected sync date YYYY-MM-DD (default: latest bar in the store)")
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

	sum, err := stats.Collect(ctx, st)
	if err != nil {
		log.Fatalf("failed to collect stats: %v", err)
	}
	fmt.Println(sum)

	if !*validate {
		return
	}

	symbols, err := universe.Load(cfg.Storage.SymbolsPath)
	if err != nil {
		log.Fatalf("failed to load symbol universe: %v", err)
	}

	asOf := sum.Latest
	if *asOfFlag != "" {
		asOf, err = time.Parse(domain.DateFormat, *asOfFlag)
		if err != nil {
			log.Fatalf("invalid -as-of date: %v", err)
		}
	}

	report, err := stats.Validate(ctx, st, st, symbols, asOf)
	if err != nil {
		log.Fatalf("validation failed: %v", err)
	}
	fmt.Println(report)
	for _, sym := range report.Missing {
		fmt.Printf("missing: %s\n", sym)
	}
	for _, s := range report.Stale {
		last := "never"
		if !s.LastSynced.IsZero() {
			last = s.LastSynced.Format(domain.DateFormat)
		}
		fmt.Printf("stale: %s (last synced %s)\n", s.Symbol, last)
	}
	if len(report.Missing) > 0 || len(report.Stale) > 0 {
		os.Exit(1)
	}
}
