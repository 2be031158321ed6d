package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ConversationOptions configures the conversation store and its context
// trimming behaviour (component J).
type ConversationOptions struct {
	MaxContextTokens      int           `json:"max-context-tokens" mapstructure:"max-context-tokens"`
	SessionTimeoutMinutes int           `json:"session-timeout-minutes" mapstructure:"session-timeout-minutes"`
	CleanupInterval       time.Duration `json:"cleanup-interval" mapstructure:"cleanup-interval"`
}

// NewConversationOptions returns defaults; cleanup runs every five minutes
// per spec.md §4.J.
func NewConversationOptions() *ConversationOptions {
	return &ConversationOptions{
		MaxContextTokens:      100000,
		SessionTimeoutMinutes: 30,
		CleanupInterval:       5 * time.Minute,
	}
}

func (o *ConversationOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxContextTokens, "conversation.max-context-tokens", o.MaxContextTokens, "Estimated token budget kept per conversation before trimming.")
	fs.IntVar(&o.SessionTimeoutMinutes, "conversation.session-timeout-minutes", o.SessionTimeoutMinutes, "Minutes of inactivity before a conversation is evicted.")
	fs.DurationVar(&o.CleanupInterval, "conversation.cleanup-interval", o.CleanupInterval, "Background idle-conversation sweep interval.")
}

func (o *ConversationOptions) Validate() []error {
	var errs []error
	if o.MaxContextTokens <= 0 {
		errs = append(errs, fmt.Errorf("conversation.max-context-tokens must be positive"))
	}
	if o.SessionTimeoutMinutes <= 0 {
		errs = append(errs, fmt.Errorf("conversation.session-timeout-minutes must be positive"))
	}
	return errs
}
