// Package source defines the remote market-data client boundary and its
// error taxonomy. The collection engine only sees this interface; the Alpaca
// implementation lives alongside it.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketsync/internal/domain"
)

// Client fetches daily bars for one symbol over an inclusive date range.
// Implementations must return errors classifiable by KindOf.
type Client interface {
	FetchRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// ErrorKind classifies a fetch failure for retry decisions.
type ErrorKind int

const (
	// Transient covers network failures, timeouts, and 5xx responses.
	// Retried with backoff.
	Transient ErrorKind = iota
	// RateLimited means the API rejected the request for quota reasons
	// (HTTP 429). Retried with backoff.
	RateLimited
	// Permanent means retrying cannot help: unknown symbol, malformed
	// request, revoked credentials.
	Permanent
)

// String returns the kind's name for logs and progress messages.
func (k ErrorKind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case Permanent:
		return "permanent"
	default:
		return "transient"
	}
}

// Error wraps a fetch failure with its classification and the symbol it
// belongs to.
type Error struct {
	Kind   ErrorKind
	Symbol string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Symbol, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from err. Errors that did not come from
// a Client are treated as Transient, the safe default for retry purposes.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Transient
}
