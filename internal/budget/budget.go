// Package budget tracks cumulative token and cost usage against one or
// more configured limits, signaling warning and exceeded states.
package budget

import "sync"

// Status is the result of checking accumulated usage against a limit.
type Status int

const (
	// Ok means usage is comfortably under every configured limit.
	Ok Status = iota
	// Warning means usage crossed the warn fraction of the tightest
	// limit; Tracker.Fraction reports the fraction of that limit used.
	Warning
	// Exceeded means usage reached or passed a configured limit.
	Exceeded
)

// Limit bundles the budget's ceilings. A zero value disables that
// particular ceiling.
type Limit struct {
	MaxTokens    int64
	MaxCostUSD   float64
	WarnFraction float64
}

// Tracker accumulates input/output tokens and cost, and reports status
// against a Limit. Status transitions are monotonic within a tracker's
// lifetime: once Exceeded, a subsequent Ok is never reported again.
type Tracker struct {
	mu sync.Mutex

	inputTokens  int64
	outputTokens int64
	costUSD      float64

	everExceeded bool
}

// NewTracker returns a zeroed usage tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Update accumulates one turn's usage.
func (t *Tracker) Update(input, output int64, cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTokens += input
	t.outputTokens += output
	t.costUSD += cost
}

// Totals returns the accumulated input tokens, output tokens, and cost.
func (t *Tracker) Totals() (inputTokens, outputTokens int64, costUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTokens, t.outputTokens, t.costUSD
}

// Check reports status against limit. When both MaxTokens and MaxCostUSD
// are configured, the tightest (closest to being exceeded, as a
// fraction-used comparison) determines the result.
func (t *Tracker) Check(limit Limit) Status {
	t.mu.Lock()
	totalTokens := t.inputTokens + t.outputTokens
	cost := t.costUSD
	wasExceeded := t.everExceeded
	t.mu.Unlock()

	warnFraction := limit.WarnFraction
	if warnFraction <= 0 {
		warnFraction = 0.8
	}

	var tightestFraction float64
	haveLimit := false

	if limit.MaxTokens > 0 {
		f := float64(totalTokens) / float64(limit.MaxTokens)
		if !haveLimit || f > tightestFraction {
			tightestFraction = f
		}
		haveLimit = true
	}
	if limit.MaxCostUSD > 0 {
		f := cost / limit.MaxCostUSD
		if !haveLimit || f > tightestFraction {
			tightestFraction = f
		}
		haveLimit = true
	}

	var status Status
	switch {
	case !haveLimit:
		status = Ok
	case tightestFraction >= 1.0:
		status = Exceeded
	case tightestFraction >= warnFraction:
		status = Warning
	default:
		status = Ok
	}

	if wasExceeded {
		// Monotonic: once exceeded, never report Ok again.
		if status == Ok {
			status = Warning
		}
		t.mu.Lock()
		t.everExceeded = true
		t.mu.Unlock()
		return status
	}

	if status == Exceeded {
		t.mu.Lock()
		t.everExceeded = true
		t.mu.Unlock()
	}
	return status
}

// Fraction returns how far (as a fraction, e.g. 0.85) accumulated usage
// is into the given limit's tightest dimension. Used to report Warning's
// fraction to callers.
func (t *Tracker) Fraction(limit Limit) float64 {
	t.mu.Lock()
	totalTokens := t.inputTokens + t.outputTokens
	cost := t.costUSD
	t.mu.Unlock()

	var tightest float64
	if limit.MaxTokens > 0 {
		tightest = float64(totalTokens) / float64(limit.MaxTokens)
	}
	if limit.MaxCostUSD > 0 {
		f := cost / limit.MaxCostUSD
		if f > tightest {
			tightest = f
		}
	}
	return tightest
}
