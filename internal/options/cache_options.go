package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// CacheOptions configures the chat-completion response cache (component H).
type CacheOptions struct {
	TTL         time.Duration `json:"ttl" mapstructure:"ttl"`
	MaxEntries  int           `json:"max-entries" mapstructure:"max-entries"`
	SweepEvery  time.Duration `json:"sweep-interval" mapstructure:"sweep-interval"`
	Coalesce    bool          `json:"coalesce" mapstructure:"coalesce"`
}

// NewCacheOptions returns defaults matching spec.md §4.H (five-minute sweep).
func NewCacheOptions() *CacheOptions {
	return &CacheOptions{
		TTL:        10 * time.Minute,
		MaxEntries: 1000,
		SweepEvery: 5 * time.Minute,
		Coalesce:   true,
	}
}

func (o *CacheOptions) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.TTL, "cache.ttl", o.TTL, "Cached response time-to-live.")
	fs.IntVar(&o.MaxEntries, "cache.max-entries", o.MaxEntries, "Maximum cache entries before oldest-created eviction.")
	fs.DurationVar(&o.SweepEvery, "cache.sweep-interval", o.SweepEvery, "Background expired-entry sweep interval.")
	fs.BoolVar(&o.Coalesce, "cache.coalesce", o.Coalesce, "Coalesce concurrent identical requests onto one in-flight build.")
}

func (o *CacheOptions) Validate() []error {
	var errs []error
	if o.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("cache.max-entries must be positive"))
	}
	return errs
}
