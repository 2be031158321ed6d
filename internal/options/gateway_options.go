package options

import (
	"time"

	"github.com/spf13/pflag"
)

// GatewayOptions configures the OpenAI-compatible HTTP surface (component I).
type GatewayOptions struct {
	AuthEnabled bool   `json:"auth-enabled" mapstructure:"auth-enabled"`
	AuthToken   string `json:"auth-token" mapstructure:"auth-token"`

	DefaultAgentID string `json:"default-agent-id" mapstructure:"default-agent-id"`
	DefaultModel   string `json:"default-model" mapstructure:"default-model"`

	KeepAliveInterval time.Duration `json:"keep-alive-interval" mapstructure:"keep-alive-interval"`
	TurnTimeout       time.Duration `json:"turn-timeout" mapstructure:"turn-timeout"`

	EnableToolCallDetection bool `json:"enable-tool-call-detection" mapstructure:"enable-tool-call-detection"`
}

// NewGatewayOptions returns defaults; tool-call heuristic detection is off
// by default per spec.md §9 open question 2 (strict schema conformance by
// default, opt-in fuzzy match).
func NewGatewayOptions() *GatewayOptions {
	return &GatewayOptions{
		DefaultAgentID:          "main",
		DefaultModel:            "agentrelay",
		KeepAliveInterval:       30 * time.Second,
		TurnTimeout:             5 * time.Minute,
		EnableToolCallDetection: false,
	}
}

func (o *GatewayOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.AuthEnabled, "gateway.auth-enabled", o.AuthEnabled, "Enforce Bearer token authentication.")
	fs.StringVar(&o.AuthToken, "gateway.auth-token", o.AuthToken, "Expected Bearer token (also read from AGENTRELAY_GATEWAY_TOKEN).")
	fs.StringVar(&o.DefaultAgentID, "gateway.default-agent-id", o.DefaultAgentID, "Agent/session id used when none is resolved from the request.")
	fs.StringVar(&o.DefaultModel, "gateway.default-model", o.DefaultModel, "Model name reported when the request omits one.")
	fs.DurationVar(&o.KeepAliveInterval, "gateway.keep-alive-interval", o.KeepAliveInterval, "SSE keep-alive comment interval.")
	fs.DurationVar(&o.TurnTimeout, "gateway.turn-timeout", o.TurnTimeout, "Maximum time a single turn may take before a 504 is returned.")
	fs.BoolVar(&o.EnableToolCallDetection, "gateway.enable-tool-call-detection", o.EnableToolCallDetection, "Enable the best-effort JSON-to-tool-call heuristic.")
}

func (o *GatewayOptions) Validate() []error {
	return nil
}
