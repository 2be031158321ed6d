// Package retry implements exponential backoff with jitter and an error
// classifier deciding which failures are worth retrying.
package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/agentrelay/agentrelay/internal/options"
	"github.com/agentrelay/agentrelay/pkg/errorx"
)

var retryableSubstrings = []string{
	"timeout", "connection", "temporarily unavailable", "too many requests", "overloaded",
}

var permanentSubstrings = []string{
	"invalid", "unauthorized", "forbidden", "not found",
}

// Classify reports whether err's text indicates a retryable failure.
// Anything not matched by either list is retryable by default.
func Classify(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range permanentSubstrings {
		if strings.Contains(msg, s) {
			return false
		}
	}
	for _, s := range retryableSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return true
}

// Policy computes delays for successive retry attempts.
type Policy struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	JitterFraction  float64
}

// NewPolicy builds a Policy from RetryOptions.
func NewPolicy(o *options.RetryOptions) Policy {
	return Policy{
		MaxRetries:      o.MaxRetries,
		InitialDelay:    o.InitialDelay,
		MaxDelay:        o.MaxDelay,
		ExponentialBase: o.ExponentialBase,
		JitterFraction:  o.JitterFraction,
	}
}

// Delay returns the backoff delay before retry attempt n (1-based),
// including proportional jitter.
func (p Policy) Delay(attempt int) time.Duration {
	base := float64(p.InitialDelay) * math.Pow(p.ExponentialBase, float64(attempt-1))
	if base > float64(p.MaxDelay) {
		base = float64(p.MaxDelay)
	}
	jitter := base * p.JitterFraction * (rand.Float64()*2 - 1)
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// Do runs fn, retrying retryable failures per the policy up to
// MaxRetries times, backing off between attempts. It stops immediately
// on a permanent failure, on ctx cancellation, or when the circuit
// breaker (if provided) is open.
func Do(ctx context.Context, p Policy, cb *CircuitBreaker, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if cb != nil && !cb.Allow() {
			if lastErr != nil {
				return lastErr
			}
			return errorx.WithCode(errorx.CodeCircuitOpen, "circuit breaker open, fn was not called")
		}

		err := fn()
		if err == nil {
			if cb != nil {
				cb.RecordSuccess()
			}
			return nil
		}
		lastErr = err
		if cb != nil {
			cb.RecordFailure()
		}

		if !Classify(err) || attempt == p.MaxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt + 1)):
		}
	}
	return lastErr
}
