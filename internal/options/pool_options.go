package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// PoolOptions configures the prewarmed agent-session pool (component G).
type PoolOptions struct {
	MinIdle     int           `json:"min-idle" mapstructure:"min-idle"`
	MaxIdle     int           `json:"max-idle" mapstructure:"max-idle"`
	MaxActive   int           `json:"max-active" mapstructure:"max-active"`
	IdleTimeout time.Duration `json:"idle-timeout" mapstructure:"idle-timeout"`
	RefillEvery time.Duration `json:"refill-interval" mapstructure:"refill-interval"`
	EvictEvery  time.Duration `json:"evict-interval" mapstructure:"evict-interval"`
}

// NewPoolOptions returns modest defaults suitable for a single gateway
// instance.
func NewPoolOptions() *PoolOptions {
	return &PoolOptions{
		MinIdle:     1,
		MaxIdle:     4,
		MaxActive:   16,
		IdleTimeout: 10 * time.Minute,
		RefillEvery: 5 * time.Second,
		EvictEvery:  30 * time.Second,
	}
}

func (o *PoolOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MinIdle, "pool.min-idle", o.MinIdle, "Minimum idle sessions the refill loop maintains.")
	fs.IntVar(&o.MaxIdle, "pool.max-idle", o.MaxIdle, "Maximum idle sessions kept parked.")
	fs.IntVar(&o.MaxActive, "pool.max-active", o.MaxActive, "Maximum concurrently active sessions.")
	fs.DurationVar(&o.IdleTimeout, "pool.idle-timeout", o.IdleTimeout, "Idle session eviction age.")
	fs.DurationVar(&o.RefillEvery, "pool.refill-interval", o.RefillEvery, "Background refill loop interval.")
	fs.DurationVar(&o.EvictEvery, "pool.evict-interval", o.EvictEvery, "Background eviction loop interval.")
}

func (o *PoolOptions) Validate() []error {
	var errs []error
	if o.MaxIdle < o.MinIdle {
		errs = append(errs, fmt.Errorf("pool.max-idle (%d) must be >= pool.min-idle (%d)", o.MaxIdle, o.MinIdle))
	}
	if o.MaxActive <= 0 {
		errs = append(errs, fmt.Errorf("pool.max-active must be positive"))
	}
	return errs
}
