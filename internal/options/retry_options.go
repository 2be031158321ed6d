package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// RetryOptions configures the backoff/jitter policy and the companion
// circuit breaker (component L). Defaults mirror the retry policy in
// the original Rust implementation (max_retries=3, initial_delay_ms=1000,
// max_delay_ms=30000, exponential_base=2.0).
type RetryOptions struct {
	MaxRetries        int           `json:"max-retries" mapstructure:"max-retries"`
	InitialDelay      time.Duration `json:"initial-delay" mapstructure:"initial-delay"`
	MaxDelay          time.Duration `json:"max-delay" mapstructure:"max-delay"`
	ExponentialBase   float64       `json:"exponential-base" mapstructure:"exponential-base"`
	JitterFraction    float64       `json:"jitter-fraction" mapstructure:"jitter-fraction"`

	CircuitFailureThreshold int           `json:"circuit-failure-threshold" mapstructure:"circuit-failure-threshold"`
	CircuitRecoveryTimeout  time.Duration `json:"circuit-recovery-timeout" mapstructure:"circuit-recovery-timeout"`
}

func NewRetryOptions() *RetryOptions {
	return &RetryOptions{
		MaxRetries:              3,
		InitialDelay:            time.Second,
		MaxDelay:                30 * time.Second,
		ExponentialBase:         2.0,
		JitterFraction:          0.2,
		CircuitFailureThreshold: 5,
		CircuitRecoveryTimeout:  30 * time.Second,
	}
}

func (o *RetryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxRetries, "retry.max-retries", o.MaxRetries, "Maximum retry attempts for a retryable failure.")
	fs.DurationVar(&o.InitialDelay, "retry.initial-delay", o.InitialDelay, "Delay before the first retry.")
	fs.DurationVar(&o.MaxDelay, "retry.max-delay", o.MaxDelay, "Upper bound on backoff delay.")
	fs.Float64Var(&o.ExponentialBase, "retry.exponential-base", o.ExponentialBase, "Backoff multiplier applied per attempt.")
	fs.Float64Var(&o.JitterFraction, "retry.jitter-fraction", o.JitterFraction, "Proportional jitter applied to each computed delay.")
	fs.IntVar(&o.CircuitFailureThreshold, "retry.circuit-failure-threshold", o.CircuitFailureThreshold, "Consecutive failures before the circuit opens.")
	fs.DurationVar(&o.CircuitRecoveryTimeout, "retry.circuit-recovery-timeout", o.CircuitRecoveryTimeout, "Time an open circuit waits before trying again.")
}

func (o *RetryOptions) Validate() []error {
	var errs []error
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max-retries must not be negative"))
	}
	if o.ExponentialBase <= 1 {
		errs = append(errs, fmt.Errorf("retry.exponential-base must be greater than 1"))
	}
	if o.JitterFraction < 0 || o.JitterFraction > 1 {
		errs = append(errs, fmt.Errorf("retry.jitter-fraction must be in [0, 1]"))
	}
	if o.CircuitFailureThreshold <= 0 {
		errs = append(errs, fmt.Errorf("retry.circuit-failure-threshold must be positive"))
	}
	return errs
}
