package retry

import (
	"sync/atomic"
	"time"
)

// CircuitBreaker counts failures with an atomic counter; it opens once
// the count reaches threshold, and closes automatically after
// recoveryTimeout has elapsed since the last recorded failure. Any
// success resets the counter immediately.
type CircuitBreaker struct {
	threshold       int64
	recoveryTimeout time.Duration

	failures     int64
	lastFailure  atomic.Int64 // unix nanos
}

// NewCircuitBreaker builds a breaker with the given failure threshold and
// recovery timeout.
func NewCircuitBreaker(threshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:       int64(threshold),
		recoveryTimeout: recoveryTimeout,
	}
}

// Allow reports whether a call may proceed: true when the circuit is
// closed, or when it's open but the recovery timeout has elapsed since
// the last failure (a half-open trial).
func (b *CircuitBreaker) Allow() bool {
	if atomic.LoadInt64(&b.failures) < b.threshold {
		return true
	}
	last := b.lastFailure.Load()
	return time.Since(time.Unix(0, last)) >= b.recoveryTimeout
}

// RecordFailure increments the failure counter and stamps the failure
// time used for recovery-timeout accounting.
func (b *CircuitBreaker) RecordFailure() {
	atomic.AddInt64(&b.failures, 1)
	b.lastFailure.Store(time.Now().UnixNano())
}

// RecordSuccess resets the failure counter, closing the circuit.
func (b *CircuitBreaker) RecordSuccess() {
	atomic.StoreInt64(&b.failures, 0)
}

// Open reports whether the circuit is currently open (and not yet past
// its recovery timeout).
func (b *CircuitBreaker) Open() bool {
	return !b.Allow()
}
