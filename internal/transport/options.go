package transport

import (
	"fmt"

	"github.com/agentrelay/agentrelay/internal/options"
)

// SpawnOptions carries everything needed to build the agent CLI's argv and
// working environment for one subprocess launch.
type SpawnOptions struct {
	BinaryPath string
	WorkingDir string
	Model      string

	Transport *options.TransportOptions
}

// BuildArgs derives the command-line arguments for the agent CLI from the
// spawn and transport options: model, working directory, permission mode,
// tool allow/deny lists, extra directories, settings file, and the
// streaming input/output format flags the query runtime requires.
func BuildArgs(o SpawnOptions) []string {
	args := []string{
		"--output-format", "stream-json",
		"--input-format", "stream-json",
		"--verbose",
	}

	model := o.Model
	if model == "" {
		model = o.Transport.DefaultModel
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	if o.WorkingDir != "" {
		args = append(args, "--cwd", o.WorkingDir)
	}

	if o.Transport.PermissionMode != "" {
		args = append(args, "--permission-mode", o.Transport.PermissionMode)
	}
	for _, t := range o.Transport.AllowedTools {
		args = append(args, "--allowedTools", t)
	}
	for _, t := range o.Transport.DisallowedTools {
		args = append(args, "--disallowedTools", t)
	}
	for _, d := range o.Transport.ExtraDirs {
		args = append(args, "--add-dir", d)
	}
	if o.Transport.SettingsFile != "" {
		args = append(args, "--settings", o.Transport.SettingsFile)
	}
	if o.Transport.ThinkingBudget > 0 {
		args = append(args, "--thinking-budget", fmt.Sprintf("%d", o.Transport.ThinkingBudget))
	}
	if o.Transport.MaxOutputTokens > 0 {
		args = append(args, "--max-output-tokens", fmt.Sprintf("%d", o.Transport.MaxOutputTokens))
	}
	return args
}
