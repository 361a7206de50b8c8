// Package fetch implements the concurrent collection engine: a fixed pool of
// workers draining a shared symbol queue, each fetching week-sized batches
// from the remote source under a per-worker rate limit and persisting them
// incrementally behind a per-symbol watermark.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"marketsync/internal/domain"
	"marketsync/internal/source"
	"marketsync/internal/store"
	"marketsync/internal/util"
)

// Options configures one collection run.
type Options struct {
	Symbols []string
	Range   domain.DateRange

	// NumWorkers is the size of the worker pool. One is not a special case,
	// just a pool of one.
	NumWorkers int

	// RetryAttempts is the total attempts per batch, including the first.
	RetryAttempts int

	// RateLimitPerMin is the global request budget. Workers limit
	// independently, so each receives RateLimitPerMin / NumWorkers.
	RateLimitPerMin int

	// RetryBaseDelay overrides the default backoff base when positive.
	RetryBaseDelay time.Duration
}

// ConfigError reports invalid Options. It is returned before any worker
// starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid collection config: " + e.Reason
}

// Result is the aggregate outcome of a run. Every queued symbol lands in
// exactly one of the Processed/Skipped/Failed buckets.
type Result struct {
	SymbolsTotal     int
	SymbolsProcessed int
	SymbolsSkipped   int
	SymbolsFailed    int
	RecordsWritten   int
	Elapsed          time.Duration
}

// Engine owns the worker pool, the shared queue, and the progress broadcast
// for collection runs.
type Engine struct {
	cal      Calendar
	client   source.Client
	bars     store.BarStore
	marks    store.WatermarkStore
	progress *Broadcaster
	log      *slog.Logger
}

// NewEngine wires an Engine with its collaborators.
func NewEngine(cal Calendar, client source.Client, bars store.BarStore, marks store.WatermarkStore) *Engine {
	return &Engine{
		cal:      cal,
		client:   client,
		bars:     bars,
		marks:    marks,
		progress: NewBroadcaster(),
		log:      slog.Default().With("component", "fetch"),
	}
}

// Subscribe registers a progress listener. Subscribers added before Run see
// every event; a slow subscriber misses events rather than slowing workers.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	return e.progress.Subscribe(buffer)
}

// Close shuts the progress broadcast down, closing all subscriber channels.
// Call it after the final Run; the engine stays usable for repeated runs
// until then.
func (e *Engine) Close() {
	e.progress.Close()
}

// Run validates opts, drains the symbol queue with a pool of workers, and
// returns the aggregate result once every worker has stopped. A symbol's
// failure never aborts the run; only invalid configuration does.
func (e *Engine) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.NumWorkers < 1 {
		return Result{}, &ConfigError{Reason: fmt.Sprintf("num_workers must be >= 1, got %d", opts.NumWorkers)}
	}
	if opts.RetryAttempts < 1 {
		return Result{}, &ConfigError{Reason: fmt.Sprintf("retry_attempts must be >= 1, got %d", opts.RetryAttempts)}
	}
	if !opts.Range.IsValid() {
		return Result{}, &ConfigError{Reason: fmt.Sprintf("start date %s is after end date %s",
			opts.Range.Start.Format(domain.DateFormat), opts.Range.End.Format(domain.DateFormat))}
	}
	if len(opts.Symbols) == 0 {
		return Result{}, &ConfigError{Reason: "symbol set is empty"}
	}

	// Clamp the requested span to trading days up front. A range with no
	// trading days at all is not an error; every symbol just gets skipped.
	reqRange := opts.Range
	if start, end, err := e.cal.AdjustRange(opts.Range.Start, opts.Range.End); err == nil {
		reqRange = domain.DateRange{Start: start, End: end}
	}

	queue := NewQueue(opts.Symbols)

	perWorkerRate := opts.RateLimitPerMin / opts.NumWorkers
	if perWorkerRate < 1 {
		perWorkerRate = 1
	}

	retry := DefaultRetryPolicy()
	retry.MaxAttempts = opts.RetryAttempts
	if opts.RetryBaseDelay > 0 {
		retry.BaseDelay = opts.RetryBaseDelay
	}

	e.log.Info("starting collection",
		"symbols", queue.Len(),
		"workers", opts.NumWorkers,
		"start", reqRange.Start.Format(domain.DateFormat),
		"end", reqRange.End.Format(domain.DateFormat),
		"rate_per_worker", perWorkerRate,
	)

	started := time.Now()
	tallies := make([]tally, opts.NumWorkers)
	var wg sync.WaitGroup

	for i := 0; i < opts.NumWorkers; i++ {
		w := &worker{
			id:        i,
			queue:     queue,
			cal:       e.cal,
			client:    e.client,
			bars:      e.bars,
			marks:     e.marks,
			limiter:   util.NewRateLimiter(perWorkerRate),
			retry:     retry,
			progress:  e.progress,
			requested: reqRange,
			log:       e.log.With("worker", i),
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tallies[i] = w.run(ctx)
		}(i)
	}

	wg.Wait()

	result := Result{
		SymbolsTotal: queue.Len(),
		Elapsed:      time.Since(started),
	}
	for _, t := range tallies {
		result.SymbolsProcessed += t.processed
		result.SymbolsSkipped += t.skipped
		result.SymbolsFailed += t.failed
		result.RecordsWritten += t.records
	}

	e.log.Info("collection finished",
		"processed", result.SymbolsProcessed,
		"skipped", result.SymbolsSkipped,
		"failed", result.SymbolsFailed,
		"records", result.RecordsWritten,
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}
