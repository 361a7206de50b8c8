package fetch

import (
	"sync"
	"time"
)

// Phase labels a worker's state transition for a symbol.
type Phase string

const (
	PhaseStarted        Phase = "started"
	PhaseBatchCompleted Phase = "batch_completed"
	PhaseSkipped        Phase = "skipped"
	PhaseCompleted      Phase = "completed"
	PhaseFailed         Phase = "failed"
)

// Event is one structured progress notification. Events for a given symbol
// are emitted in order by the single worker that owns it; no ordering holds
// across symbols.
type Event struct {
	WorkerID  int
	Symbol    string
	Phase     Phase
	Message   string
	Reason    string // failure reason, set only for PhaseFailed
	Timestamp time.Time
}

// Broadcaster fans progress events out to any number of subscribers. A
// subscriber whose buffer is full misses events rather than blocking the
// publishing worker: losing a display update is tolerable, stalling
// collection is not.
type Broadcaster struct {
	mu     sync.Mutex
	subs   []chan Event
	closed bool
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new listener and returns its channel. Events
// published before the subscription are not replayed. buffer values below 1
// are raised to 1.
func (b *Broadcaster) Subscribe(buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers ev to every subscriber that has buffer room. It never
// blocks.
func (b *Broadcaster) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; drop rather than block the worker.
		}
	}
}

// Close closes all subscriber channels. Publish becomes a no-op afterwards.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
