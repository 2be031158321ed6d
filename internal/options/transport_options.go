package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// TransportOptions configures the binary locator and the argv/environment
// the subprocess transport builds for the agent CLI.
type TransportOptions struct {
	// BinaryPath, if set, short-circuits auto-discovery.
	BinaryPath string `json:"binary-path" mapstructure:"binary-path"`
	// AutoDownload allows the binary locator to fetch the CLI when not found.
	AutoDownload bool `json:"auto-download" mapstructure:"auto-download"`
	// CacheDir is the managed cache directory the locator downloads into.
	CacheDir string `json:"cache-dir" mapstructure:"cache-dir"`

	DefaultModel     string   `json:"default-model" mapstructure:"default-model"`
	PermissionMode   string   `json:"permission-mode" mapstructure:"permission-mode"`
	AllowedTools     []string `json:"allowed-tools" mapstructure:"allowed-tools"`
	DisallowedTools  []string `json:"disallowed-tools" mapstructure:"disallowed-tools"`
	ExtraDirs        []string `json:"extra-dirs" mapstructure:"extra-dirs"`
	SettingsFile     string   `json:"settings-file" mapstructure:"settings-file"`
	ThinkingBudget    int     `json:"thinking-budget" mapstructure:"thinking-budget"`
	MaxOutputTokens   int     `json:"max-output-tokens" mapstructure:"max-output-tokens"`
	ControlProtoVersion string `json:"control-protocol-version" mapstructure:"control-protocol-version"`
}

// NewTransportOptions returns conservative defaults.
func NewTransportOptions() *TransportOptions {
	return &TransportOptions{
		PermissionMode:      "default",
		ControlProtoVersion: "1",
	}
}

func (o *TransportOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BinaryPath, "transport.binary-path", o.BinaryPath, "Explicit path to the agent CLI binary, skipping auto-discovery.")
	fs.BoolVar(&o.AutoDownload, "transport.auto-download", o.AutoDownload, "Download the agent CLI if not found locally.")
	fs.StringVar(&o.CacheDir, "transport.cache-dir", o.CacheDir, "Cache directory for downloaded agent CLI binaries.")
	fs.StringVar(&o.DefaultModel, "transport.default-model", o.DefaultModel, "Default --model passed to the agent CLI.")
	fs.StringVar(&o.PermissionMode, "transport.permission-mode", o.PermissionMode, "default|acceptEdits|plan|bypassPermissions.")
	fs.StringSliceVar(&o.AllowedTools, "transport.allowed-tools", o.AllowedTools, "Comma-separated --allowedTools list.")
	fs.StringSliceVar(&o.DisallowedTools, "transport.disallowed-tools", o.DisallowedTools, "Comma-separated --disallowedTools list.")
	fs.StringSliceVar(&o.ExtraDirs, "transport.extra-dirs", o.ExtraDirs, "Repeatable --add-dir paths.")
	fs.StringVar(&o.SettingsFile, "transport.settings-file", o.SettingsFile, "--settings path.")
	fs.IntVar(&o.ThinkingBudget, "transport.thinking-budget", o.ThinkingBudget, "Opt-in thinking-token budget.")
	fs.IntVar(&o.MaxOutputTokens, "transport.max-output-tokens", o.MaxOutputTokens, "Opt-in max output tokens.")
	fs.StringVar(&o.ControlProtoVersion, "transport.control-protocol-version", o.ControlProtoVersion, "Control-protocol format version.")
}

func (o *TransportOptions) Validate() []error {
	var errs []error
	switch o.PermissionMode {
	case "default", "acceptEdits", "plan", "bypassPermissions":
	default:
		errs = append(errs, fmt.Errorf("transport.permission-mode %q invalid", o.PermissionMode))
	}
	return errs
}
