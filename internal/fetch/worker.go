package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketsync/internal/domain"
	"marketsync/internal/source"
	"marketsync/internal/store"
	"marketsync/internal/util"
)

// worker drains the shared queue one symbol at a time: read the watermark,
// plan the missing batches, then fetch and persist each batch in order.
// Every worker owns its own rate limiter; the queue is the only shared
// mutable state it touches directly.
type worker struct {
	id        int
	queue     *Queue
	cal       Calendar
	client    source.Client
	bars      store.BarStore
	marks     store.WatermarkStore
	limiter   *util.RateLimiter
	retry     RetryPolicy
	progress  *Broadcaster
	requested domain.DateRange
	log       *slog.Logger
}

// tally is one worker's contribution to the aggregate result.
type tally struct {
	processed int
	skipped   int
	failed    int
	records   int
}

// run consumes symbols until the queue is empty or ctx is cancelled.
// Cancellation is only honored between symbols and between batches, so an
// in-flight batch always persists before the worker stops.
func (w *worker) run(ctx context.Context) tally {
	var t tally
	for {
		if ctx.Err() != nil {
			return t
		}
		symbol, ok := w.queue.TakeNext()
		if !ok {
			return t
		}
		w.processSymbol(ctx, symbol, &t)
	}
}

func (w *worker) processSymbol(ctx context.Context, symbol string, t *tally) {
	start, end := w.requested.Start, w.requested.End

	// The watermark defines the lower bound of the missing range: resume
	// from the first trading day after it.
	mark, synced, err := w.marks.ReadWatermark(ctx, symbol)
	if err != nil {
		w.fail(symbol, t, fmt.Errorf("reading watermark: %w", err))
		return
	}
	if synced && !mark.Before(start) {
		start = w.cal.NextTradingDay(mark.AddDate(0, 0, 1))
	}

	batches := PlanBatches(w.cal, start, end)
	if len(batches) == 0 {
		t.skipped++
		w.emit(symbol, PhaseSkipped, "already up to date", "")
		w.log.Debug("skipped", "symbol", symbol)
		return
	}

	w.emit(symbol, PhaseStarted, fmt.Sprintf("%d batches, %s to %s",
		len(batches),
		batches[0].Start.Format(domain.DateFormat),
		batches[len(batches)-1].End.Format(domain.DateFormat)), "")

	for i, batch := range batches {
		// Cancellation check at the batch boundary only.
		if err := ctx.Err(); err != nil {
			w.fail(symbol, t, fmt.Errorf("cancelled after %d/%d batches: %w", i, len(batches), err))
			return
		}

		bars, err := w.fetchBatch(ctx, symbol, batch)
		if err != nil {
			w.fail(symbol, t, err)
			return
		}

		// Persist before advancing the watermark; the order is what makes a
		// crash between the two safe.
		written, err := w.bars.WriteBars(ctx, bars)
		if err != nil {
			w.fail(symbol, t, fmt.Errorf("persisting batch %s..%s: %w",
				batch.Start.Format(domain.DateFormat), batch.End.Format(domain.DateFormat), err))
			return
		}
		if err := w.marks.WriteWatermark(ctx, symbol, batch.End); err != nil {
			w.fail(symbol, t, fmt.Errorf("advancing watermark: %w", err))
			return
		}

		t.records += written
		w.emit(symbol, PhaseBatchCompleted, fmt.Sprintf("batch %d/%d: %d records through %s",
			i+1, len(batches), written, batch.End.Format(domain.DateFormat)), "")
	}

	t.processed++
	w.emit(symbol, PhaseCompleted, fmt.Sprintf("%d batches done", len(batches)), "")
	w.log.Info("completed", "symbol", symbol, "batches", len(batches))
}

// fetchBatch calls the remote source for one batch, retrying per policy.
// Each attempt takes a rate-limit token first.
func (w *worker) fetchBatch(ctx context.Context, symbol string, batch Batch) ([]domain.Bar, error) {
	for attempt := 1; ; attempt++ {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limit: %w", err)
		}

		bars, err := w.client.FetchRange(ctx, symbol, batch.Start, batch.End)
		if err == nil {
			return bars, nil
		}

		d := w.retry.Decide(attempt, err)
		if !d.Retry {
			return nil, fmt.Errorf("batch %s..%s gave up after %d attempts: %w",
				batch.Start.Format(domain.DateFormat), batch.End.Format(domain.DateFormat),
				attempt, err)
		}

		w.log.Warn("batch fetch failed, retrying",
			"symbol", symbol,
			"attempt", attempt,
			"kind", source.KindOf(err).String(),
			"delay", d.Delay,
			"err", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.Delay):
		}
	}
}

func (w *worker) fail(symbol string, t *tally, err error) {
	t.failed++
	w.emit(symbol, PhaseFailed, "giving up on symbol", err.Error())
	w.log.Error("failed", "symbol", symbol, "err", err)
}

func (w *worker) emit(symbol string, phase Phase, message, reason string) {
	w.progress.Publish(Event{
		WorkerID: w.id,
		Symbol:   symbol,
		Phase:    phase,
		Message:  message,
		Reason:   reason,
	})
}
