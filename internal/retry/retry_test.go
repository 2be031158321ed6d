package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassifyRetryable(t *testing.T) {
	if !Classify(errors.New("connection reset by peer")) {
		t.Fatalf("expected connection errors to be retryable")
	}
	if !Classify(errors.New("request timeout")) {
		t.Fatalf("expected timeout errors to be retryable")
	}
}

func TestClassifyPermanent(t *testing.T) {
	if Classify(errors.New("invalid api key")) {
		t.Fatalf("expected invalid-prefixed errors to be permanent")
	}
	if Classify(errors.New("unauthorized request")) {
		t.Fatalf("expected unauthorized errors to be permanent")
	}
}

func TestClassifyDefaultsRetryable(t *testing.T) {
	if !Classify(errors.New("something unexpected happened")) {
		t.Fatalf("expected unmatched errors to default to retryable")
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	policy := Policy{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 2}
	attempts := 0
	err := Do(context.Background(), policy, nil, func() error {
		attempts++
		return errors.New("forbidden")
	})
	if err == nil || attempts != 1 {
		t.Fatalf("expected a single attempt on a permanent error, got %d attempts, err=%v", attempts, err)
	}
}

func TestDoRetriesRetryableUntilSuccess(t *testing.T) {
	policy := Policy{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 2}
	attempts := 0
	err := Do(context.Background(), policy, nil, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("expected success on third attempt, got %d attempts, err=%v", attempts, err)
	}
}

func TestDoReturnsErrorWhenCircuitOpenBeforeFirstAttempt(t *testing.T) {
	policy := Policy{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 2}
	cb := NewCircuitBreaker(1, time.Hour)
	cb.RecordFailure()

	calls := 0
	err := Do(context.Background(), policy, cb, func() error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatalf("expected a non-nil error when the circuit is already open")
	}
	if calls != 0 {
		t.Fatalf("expected fn to never run while the circuit is open, ran %d times", calls)
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Hour)
	if !cb.Allow() {
		t.Fatalf("expected circuit closed initially")
	}
	cb.RecordFailure()
	if !cb.Allow() {
		t.Fatalf("expected circuit still closed below threshold")
	}
	cb.RecordFailure()
	if cb.Allow() {
		t.Fatalf("expected circuit open at threshold")
	}
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Hour)
	cb.RecordFailure()
	if cb.Allow() {
		t.Fatalf("expected circuit open after one failure at threshold 1")
	}
	cb.RecordSuccess()
	if !cb.Allow() {
		t.Fatalf("expected circuit closed after a success")
	}
}
