package budget

import "testing"

func TestCheckOkUnderLimit(t *testing.T) {
	tr := NewTracker()
	tr.Update(100, 50, 0.01)
	if status := tr.Check(Limit{MaxTokens: 10000, WarnFraction: 0.8}); status != Ok {
		t.Fatalf("expected Ok, got %v", status)
	}
}

func TestCheckWarningAtThreshold(t *testing.T) {
	tr := NewTracker()
	tr.Update(850, 0, 0)
	if status := tr.Check(Limit{MaxTokens: 1000, WarnFraction: 0.8}); status != Warning {
		t.Fatalf("expected Warning, got %v", status)
	}
}

func TestCheckExceeded(t *testing.T) {
	tr := NewTracker()
	tr.Update(1200, 0, 0)
	if status := tr.Check(Limit{MaxTokens: 1000, WarnFraction: 0.8}); status != Exceeded {
		t.Fatalf("expected Exceeded, got %v", status)
	}
}

func TestCheckTightestLimitWins(t *testing.T) {
	tr := NewTracker()
	tr.Update(100, 0, 9.5)
	status := tr.Check(Limit{MaxTokens: 1000000, MaxCostUSD: 10, WarnFraction: 0.8})
	if status != Warning {
		t.Fatalf("expected the cost dimension (0.95) to dominate the token dimension, got %v", status)
	}
}

func TestCheckMonotonicOnceExceeded(t *testing.T) {
	tr := NewTracker()
	tr.Update(1200, 0, 0)
	limit := Limit{MaxTokens: 1000, WarnFraction: 0.8}
	if status := tr.Check(limit); status != Exceeded {
		t.Fatalf("expected Exceeded on first check, got %v", status)
	}

	// Usage doesn't change, but a subsequent call with a looser limit must
	// never report Ok again once Exceeded was observed.
	if status := tr.Check(Limit{MaxTokens: 1000000, WarnFraction: 0.8}); status == Ok {
		t.Fatalf("expected monotonic non-Ok status after an Exceeded observation, got Ok")
	}
}
