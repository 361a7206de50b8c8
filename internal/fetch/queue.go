package fetch

import (
	"sort"
	"strings"
	"sync"
)

// Queue is the shared work list of symbols. Symbols are handed out in
// lexicographic order, each to exactly one caller; the mutex is held only for
// the instant of the pop, never across I/O. Ordering at construction makes
// work assignment reproducible across runs with the same symbol set.
type Queue struct {
	mu      sync.Mutex
	symbols []string
	next    int
}

// NewQueue builds a Queue from the given symbols, normalized to upper case,
// deduplicated, and sorted.
func NewQueue(symbols []string) *Queue {
	seen := make(map[string]struct{}, len(symbols))
	ordered := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		ordered = append(ordered, sym)
	}
	sort.Strings(ordered)
	return &Queue{symbols: ordered}
}

// TakeNext returns the next unclaimed symbol. ok is false once the queue is
// drained.
func (q *Queue) TakeNext() (symbol string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.symbols) {
		return "", false
	}
	symbol = q.symbols[q.next]
	q.next++
	return symbol, true
}

// Len returns the total number of symbols the queue was built with.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.symbols)
}

// Remaining returns how many symbols are still unclaimed.
func (q *Queue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.symbols) - q.next
}
