package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketsync/internal/calendar"
	"marketsync/internal/config"
	"marketsync/internal/domain"
	"marketsync/internal/fetch"
	"marketsync/internal/source"
	"marketsync/internal/store"
	"marketsync/internal/universe"
	"marketsync/internal/util"
)

func main() {
	startFlag := flag.String("start", "", "start date YYYY-MM-DD (overrides config)")
	endFlag := flag.String("end", "", "end date YYYY-MM-DD (overrides config)")
	workers := flag.Int("workers", 0, "worker pool size (overrides config)")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (overrides the universe file)")
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

	var symbols []string
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
	} else {
		symbols, err = universe.Load(cfg.Storage.SymbolsPath)
		if err != nil {
			log.Fatalf("failed to load symbol universe: %v", err)
		}
	}

	r, err := resolveRange(cfg, *startFlag, *endFlag)
	if err != nil {
		log.Fatalf("failed to resolve date range: %v", err)
	}

	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	client := source.NewAlpacaClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	eng := fetch.NewEngine(calendar.NewUSCalendar(), client, st, st)
	defer eng.Close()

	// Surface per-symbol progress on the log as it happens.
	go logProgress(eng.Subscribe(256))

	numWorkers := cfg.Collect.NumWorkers
	if *workers > 0 {
		numWorkers = *workers
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := eng.Run(ctx, fetch.Options{
		Symbols:         symbols,
		Range:           r,
		NumWorkers:      numWorkers,
		RetryAttempts:   cfg.Collect.RetryAttempts,
		RateLimitPerMin: cfg.Collect.RateLimitPerMin,
	})
	if err != nil {
		log.Fatalf("collection failed: %v", err)
	}

	slog.Info("done",
		"processed", res.SymbolsProcessed,
		"skipped", res.SymbolsSkipped,
		"failed", res.SymbolsFailed,
		"records", res.RecordsWritten,
		"elapsed", res.Elapsed.Round(time.Second),
	)
	if res.SymbolsFailed > 0 {
		os.Exit(1)
	}
}

// resolveRange combines config and flags into the run's date range. An empty
// end means the latest finished trading day, fetched from the trading API.
func resolveRange(cfg *config.Config, startFlag, endFlag string) (domain.DateRange, error) {
	startStr := cfg.Collect.StartDate
	if startFlag != "" {
		startStr = startFlag
	}
	start, err := time.Parse(domain.DateFormat, startStr)
	if err != nil {
		return domain.DateRange{}, err
	}

	endStr := cfg.Collect.EndDate
	if endFlag != "" {
		endStr = endFlag
	}
	var end time.Time
	if endStr == "" {
		end, err = source.LatestFinishedTradingDay(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	} else {
		end, err = time.Parse(domain.DateFormat, endStr)
	}
	if err != nil {
		return domain.DateRange{}, err
	}

	return domain.DateRange{Start: start, End: end}, nil
}

func logProgress(events <-chan fetch.Event) {
	for ev := range events {
		switch ev.Phase {
		case fetch.PhaseFailed:
			slog.Warn("symbol failed", "symbol", ev.Symbol, "worker", ev.WorkerID, "reason", ev.Reason)
		case fetch.PhaseCompleted:
			slog.Info("symbol completed", "symbol", ev.Symbol, "worker", ev.WorkerID)
		default:
			slog.Debug("progress", "symbol", ev.Symbol, "phase", string(ev.Phase), "msg", ev.Message)
		}
	}
}
