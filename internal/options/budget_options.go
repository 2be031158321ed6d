package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// BudgetOptions configures the token/cost tracker (component K).
type BudgetOptions struct {
	MaxTokens    int64   `json:"max-tokens" mapstructure:"max-tokens"`
	MaxCostUSD   float64 `json:"max-cost-usd" mapstructure:"max-cost-usd"`
	WarnFraction float64 `json:"warn-fraction" mapstructure:"warn-fraction"`
}

// NewBudgetOptions returns defaults; zero limits mean "unlimited" and are
// left for the operator to set. WarnFraction defaults to 0.8 per spec.md
// §4.K.
func NewBudgetOptions() *BudgetOptions {
	return &BudgetOptions{
		MaxTokens:    0,
		MaxCostUSD:   0,
		WarnFraction: 0.8,
	}
}

func (o *BudgetOptions) AddFlags(fs *pflag.FlagSet) {
	fs.Int64Var(&o.MaxTokens, "budget.max-tokens", o.MaxTokens, "Total token budget per pooled agent session; 0 disables the limit.")
	fs.Float64Var(&o.MaxCostUSD, "budget.max-cost-usd", o.MaxCostUSD, "Total cost budget per pooled agent session in USD; 0 disables the limit.")
	fs.Float64Var(&o.WarnFraction, "budget.warn-fraction", o.WarnFraction, "Fraction of the tightest limit at which a Warning status is reported.")
}

func (o *BudgetOptions) Validate() []error {
	var errs []error
	if o.WarnFraction <= 0 || o.WarnFraction > 1 {
		errs = append(errs, fmt.Errorf("budget.warn-fraction must be in (0, 1]"))
	}
	if o.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("budget.max-tokens must not be negative"))
	}
	if o.MaxCostUSD < 0 {
		errs = append(errs, fmt.Errorf("budget.max-cost-usd must not be negative"))
	}
	return errs
}
