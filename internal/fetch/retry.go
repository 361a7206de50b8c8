package fetch

import (
	"time"

	"marketsync/internal/source"
)

// RetryPolicy decides whether a failed batch fetch is worth another attempt.
// Rate-limited and transient errors are retried with exponential backoff;
// permanent errors give up immediately.
type RetryPolicy struct {
	MaxAttempts int           // total attempts per batch, including the first
	BaseDelay   time.Duration // backoff before the second attempt
	MaxDelay    time.Duration // backoff cap
}

// DefaultRetryPolicy returns the policy used when the caller does not
// configure one: three attempts, 2s base backoff, capped at a minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: time.Minute}
}

// Decision is the outcome of consulting the policy after a failure.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Decide classifies err after the attempt-th try (1-based) and returns
// whether to retry and after how long.
func (p RetryPolicy) Decide(attempt int, err error) Decision {
	if source.KindOf(err) == source.Permanent {
		return Decision{}
	}
	if attempt >= p.MaxAttempts {
		return Decision{}
	}

	delay := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return Decision{Retry: true, Delay: delay}
}
