package options

import "testing"

func TestNewOptionsValidatesClean(t *testing.T) {
	o := NewOptions()
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("expected defaults to validate cleanly, got %v", errs)
	}
}

func TestPoolOptionsValidateRejectsInvertedIdleBounds(t *testing.T) {
	o := NewPoolOptions()
	o.MinIdle = 8
	o.MaxIdle = 2
	errs := o.Validate()
	if len(errs) == 0 {
		t.Fatalf("expected an error when max-idle is below min-idle")
	}
}

func TestPoolOptionsValidateRejectsNonPositiveMaxActive(t *testing.T) {
	o := NewPoolOptions()
	o.MaxActive = 0
	errs := o.Validate()
	if len(errs) == 0 {
		t.Fatalf("expected an error when max-active is not positive")
	}
}

func TestOptionsStringProducesJSON(t *testing.T) {
	o := NewOptions()
	s := o.String()
	if len(s) == 0 || s[0] != '{' {
		t.Fatalf("expected JSON object rendering, got %q", s)
	}
}

func TestOptionsValidateAggregatesAllSubOptionErrors(t *testing.T) {
	o := NewOptions()
	o.PoolOptions.MaxActive = 0
	o.RetryOptions.MaxRetries = -1
	errs := o.Validate()
	if len(errs) < 2 {
		t.Fatalf("expected errors from multiple sub-options aggregated, got %v", errs)
	}
}
