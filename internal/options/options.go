package options

import (
	"github.com/agentrelay/agentrelay/pkg/cliflag"
	"github.com/agentrelay/agentrelay/pkg/jsonutil"
)

// Options aggregates every configurable surface of the gateway daemon. It
// is the root unmarshal target for viper and the root flag registrar for
// cobra, following the same shape the command options struct takes
// throughout this tree.
type Options struct {
	ServerOptions       *ServerRunOptions    `json:"server" mapstructure:"server"`
	TransportOptions    *TransportOptions    `json:"transport" mapstructure:"transport"`
	PoolOptions         *PoolOptions         `json:"pool" mapstructure:"pool"`
	CacheOptions        *CacheOptions        `json:"cache" mapstructure:"cache"`
	GatewayOptions      *GatewayOptions      `json:"gateway" mapstructure:"gateway"`
	ConversationOptions *ConversationOptions `json:"conversation" mapstructure:"conversation"`
	BudgetOptions       *BudgetOptions       `json:"budget" mapstructure:"budget"`
	RetryOptions        *RetryOptions        `json:"retry" mapstructure:"retry"`
}

// NewOptions returns an Options populated with every sub-option's
// defaults.
func NewOptions() *Options {
	return &Options{
		ServerOptions:       NewServerRunOptions(),
		TransportOptions:    NewTransportOptions(),
		PoolOptions:         NewPoolOptions(),
		CacheOptions:        NewCacheOptions(),
		GatewayOptions:      NewGatewayOptions(),
		ConversationOptions: NewConversationOptions(),
		BudgetOptions:       NewBudgetOptions(),
		RetryOptions:        NewRetryOptions(),
	}
}

// Flags returns the named flag set groups cobra renders in --help, one
// section per sub-option.
func (o *Options) Flags() (fss cliflag.NamedFlagSets) {
	o.ServerOptions.AddFlags(fss.FlagSet("server"))
	o.TransportOptions.AddFlags(fss.FlagSet("transport"))
	o.PoolOptions.AddFlags(fss.FlagSet("pool"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.GatewayOptions.AddFlags(fss.FlagSet("gateway"))
	o.ConversationOptions.AddFlags(fss.FlagSet("conversation"))
	o.BudgetOptions.AddFlags(fss.FlagSet("budget"))
	o.RetryOptions.AddFlags(fss.FlagSet("retry"))
	return fss
}

func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, o.ServerOptions.Validate()...)
	errs = append(errs, o.TransportOptions.Validate()...)
	errs = append(errs, o.PoolOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.GatewayOptions.Validate()...)
	errs = append(errs, o.ConversationOptions.Validate()...)
	errs = append(errs, o.BudgetOptions.Validate()...)
	errs = append(errs, o.RetryOptions.Validate()...)
	return errs
}

func (o *Options) String() string {
	data, _ := jsonutil.Marshal(o)
	return string(data)
}
