package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"marketsync/internal/calendar"
	"marketsync/internal/config"
	"marketsync/internal/domain"
	"marketsync/internal/fetch"
	"marketsync/internal/source"
	"marketsync/internal/store"
	"marketsync/internal/universe"
	"marketsync/internal/util"
)

// marketsync-server runs scheduled incremental collections: on each cron
// tick it syncs the whole universe up to the latest finished trading day.
// Watermarks make the repeated runs cheap.
func main() {
	runNow := flag.Bool("run-now", false, "run one collection immediately on startup")
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

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	client := source.NewAlpacaClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	eng := fetch.NewEngine(calendar.NewUSCalendar(), client, st, st)
	defer eng.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	job := func() { collect(ctx, cfg, eng) }

	c := cron.New()
	if _, err := c.AddFunc(cfg.Collect.Schedule, job); err != nil {
		log.Fatalf("invalid schedule %q: %v", cfg.Collect.Schedule, err)
	}

	slog.Info("scheduler started", "schedule", cfg.Collect.Schedule)
	c.Start()

	if *runNow {
		job()
	}

	<-ctx.Done()
	slog.Info("shutting down")
	<-c.Stop().Done()
}

func collect(ctx context.Context, cfg *config.Config, eng *fetch.Engine) {
	if ctx.Err() != nil {
		return
	}

	symbols, err := universe.Load(cfg.Storage.SymbolsPath)
	if err != nil {
		slog.Error("failed to load symbol universe", "err", err)
		return
	}

	start, err := time.Parse(domain.DateFormat, cfg.Collect.StartDate)
	if err != nil {
		slog.Error("invalid start date", "start", cfg.Collect.StartDate, "err", err)
		return
	}
	end, err := source.LatestFinishedTradingDay(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	if err != nil {
		slog.Error("failed to resolve latest trading day", "err", err)
		return
	}

	res, err := eng.Run(ctx, fetch.Options{
		Symbols:         symbols,
		Range:           domain.DateRange{Start: start, End: end},
		NumWorkers:      cfg.Collect.NumWorkers,
		RetryAttempts:   cfg.Collect.RetryAttempts,
		RateLimitPerMin: cfg.Collect.RateLimitPerMin,
	})
	if err != nil {
		slog.Error("scheduled collection failed", "err", err)
		return
	}
	slog.Info("scheduled collection finished",
		"processed", res.SymbolsProcessed,
		"skipped", res.SymbolsSkipped,
		"failed", res.SymbolsFailed,
		"records", res.RecordsWritten,
	)
}
