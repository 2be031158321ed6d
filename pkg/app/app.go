// Package app provides the common cobra/viper/pflag bootstrap every
// agentrelay binary shares: parse flags, load a RUN_MODE-selected config
// file with environment overrides, validate options, then hand off to a
// RunFunc.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agentrelay/agentrelay/pkg/cliflag"
	"github.com/agentrelay/agentrelay/pkg/logger"
)

// RunFunc is the entry point a binary supplies; basename is argv[0]'s base,
// also used for the RUN_MODE config file lookup.
type RunFunc func(basename string) error

// CliOptions is implemented by a binary's top-level Options struct.
type CliOptions interface {
	Flags() cliflag.NamedFlagSets
	Validate() []error
}

// App wires a cobra.Command around a CliOptions and a RunFunc.
type App struct {
	name        string
	basename    string
	description string
	options     CliOptions
	runFunc     RunFunc
	validArgs   cobra.PositionalArgs
	cmd         *cobra.Command
}

// Option configures an App at construction time.
type Option func(*App)

// WithOptions attaches the binary's option struct, wiring its flags and
// validation into the generated command.
func WithOptions(opts CliOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithDescription sets the long description shown in --help.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithDefaultValidArgs rejects any positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) { a.validArgs = cobra.NoArgs }
}

// WithRunFunc sets the function invoked once options are parsed/validated.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// NewApp constructs an App and its backing cobra.Command.
func NewApp(name, basename string, opts ...Option) *App {
	a := &App{name: name, basename: basename}
	for _, opt := range opts {
		opt(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:          a.basename,
		Short:        a.name,
		Long:         a.description,
		SilenceUsage: true,
		Args:         a.validArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run()
		},
	}
	cmd.SetOut(os.Stdout)

	if a.options != nil {
		fss := a.options.Flags()
		flags := cmd.Flags()
		for _, set := range fss.FlagSets {
			flags.AddFlagSet(set)
		}
		cmd.Flags().AddFlagSet(pflag.CommandLine)
	}

	a.cmd = cmd
}

func (a *App) run() error {
	if a.options != nil {
		if err := bindConfig(a.basename, a.options); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if errs := a.options.Validate(); len(errs) > 0 {
			msgs := make([]string, 0, len(errs))
			for _, e := range errs {
				msgs = append(msgs, e.Error())
			}
			return fmt.Errorf("invalid options: %s", strings.Join(msgs, "; "))
		}
	}
	if a.runFunc == nil {
		return nil
	}
	return a.runFunc(a.basename)
}

// Run executes the app's cobra command.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		logger.Error("%s: %v", a.name, err)
		os.Exit(1)
	}
}

// Command exposes the underlying cobra.Command, e.g. for subcommand wiring.
func (a *App) Command() *cobra.Command { return a.cmd }

// bindConfig loads <basename>.yaml (or the RUN_MODE-selected variant) from
// ./config, /etc/agentrelay, and $HOME/.agentrelay, applies an
// AGENTRELAY_-prefixed environment override namespace with "__" as the
// nested-key separator, and unmarshals the merged result into opts.
func bindConfig(basename string, opts CliOptions) error {
	v := viper.New()
	v.SetConfigName(configName(basename))
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/agentrelay")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.agentrelay")
	}

	v.SetEnvPrefix("AGENTRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return err
		}
	} else {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			logger.Info("config file changed: %s", e.Name)
		})
	}

	return v.Unmarshal(opts)
}

func configName(basename string) string {
	if mode := os.Getenv("RUN_MODE"); mode != "" {
		return basename + "." + mode
	}
	return basename
}
