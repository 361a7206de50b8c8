package fetch

import (
	"errors"
	"testing"
	"time"

	"marketsync/internal/source"
)

func TestRetryPolicyPermanentGivesUp(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second}

	err := &source.Error{Kind: source.Permanent, Symbol: "ZZZZ", Err: errors.New("unknown symbol")}
	if d := p.Decide(1, err); d.Retry {
		t.Error("permanent error on first attempt should not be retried")
	}
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: time.Minute}
	transient := &source.Error{Kind: source.Transient, Err: errors.New("timeout")}

	wantDelays := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range wantDelays {
		d := p.Decide(i+1, transient)
		if !d.Retry {
			t.Fatalf("attempt %d should be retried", i+1)
		}
		if d.Delay != want {
			t.Errorf("attempt %d delay = %v, want %v", i+1, d.Delay, want)
		}
	}

	if d := p.Decide(4, transient); d.Retry {
		t.Error("final attempt should exhaust the policy")
	}
}

func TestRetryPolicyDelayCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	rateLimited := &source.Error{Kind: source.RateLimited, Err: errors.New("429")}

	d := p.Decide(6, rateLimited) // uncapped would be 32s
	if !d.Retry {
		t.Fatal("attempt 6 of 10 should be retried")
	}
	if d.Delay != 5*time.Second {
		t.Errorf("delay = %v, want cap of 5s", d.Delay)
	}
}

func TestRetryPolicyPlainErrorIsTransient(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	// Errors without a source classification default to transient.
	if d := p.Decide(1, errors.New("connection reset")); !d.Retry {
		t.Error("unclassified error should be retried as transient")
	}
}
