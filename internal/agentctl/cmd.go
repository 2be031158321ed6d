package agentctl

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/moby/term"
	"github.com/spf13/cobra"

	"github.com/agentrelay/agentrelay/internal/budget"
	"github.com/agentrelay/agentrelay/internal/client"
	"github.com/agentrelay/agentrelay/internal/options"
	"github.com/agentrelay/agentrelay/internal/protocol"
)

// Options configures one agentctl invocation.
type Options struct {
	Model      string
	WorkingDir string
	BinaryPath string
}

// NewDefaultCommand builds the `agentctl` root command.
func NewDefaultCommand() *cobra.Command {
	o := &Options{Model: "default"}

	cmd := &cobra.Command{
		Use:   "agentctl [message]",
		Short: "Chat with the agent directly, no gateway required",
		Long: `agentctl drives the high-level client runtime against a local agent
subprocess. Invoked without arguments it opens an interactive TUI;
invoked with a message argument it sends one turn and prints the reply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVar(&o.Model, "model", o.Model, "Model to request from the agent")
	cmd.Flags().StringVar(&o.WorkingDir, "working-dir", o.WorkingDir, "Working directory handed to the agent subprocess")
	cmd.Flags().StringVar(&o.BinaryPath, "binary", o.BinaryPath, "Explicit path to the agent CLI binary")

	return cmd
}

func (o *Options) connect(ctx context.Context) (*client.Client, error) {
	transportOpts := options.NewTransportOptions()
	if o.BinaryPath != "" {
		transportOpts.BinaryPath = o.BinaryPath
	}

	cl := client.New(transportOpts, budget.NewTracker())
	if err := cl.Connect(ctx, o.Model, o.WorkingDir, nil, ""); err != nil {
		return nil, fmt.Errorf("connect to agent: %w", err)
	}
	return cl, nil
}

// Run either sends one message and prints the reply (non-interactive) or
// opens the TUI when no message argument was given.
func (o *Options) Run(ctx context.Context, args []string) error {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	cl, err := o.connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}
	defer cl.Disconnect()

	if len(args) > 0 {
		return runOnce(cl, strings.Join(args, " "))
	}

	if _, isTerminal := term.GetFdInfo(os.Stdin); !isTerminal {
		return fmt.Errorf("agentctl: stdin is not a terminal; pass a message argument for non-interactive use")
	}

	m := newModel(cl, o.Model)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func runOnce(cl *client.Client, message string) error {
	if err := cl.SendUserMessage(message, ""); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	envelopes, err := cl.ReceiveResponse(ctx)
	if err != nil {
		return err
	}

	for _, env := range envelopes {
		if env.Type != protocol.TypeAssistant || env.Message == nil {
			continue
		}
		for _, block := range env.Message.Content {
			if block.Type == protocol.BlockText {
				fmt.Fprint(os.Stdout, block.Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
