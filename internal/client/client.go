// Package client implements the high-level, session-oriented programmatic
// client: connect/disconnect, send user messages, consume the message
// stream, interrupt, and model/mode changes. It composes transport,
// runtime, and the token/budget tracker into one connected-or-not state
// machine.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/agentrelay/agentrelay/internal/binloc"
	"github.com/agentrelay/agentrelay/internal/budget"
	"github.com/agentrelay/agentrelay/internal/options"
	"github.com/agentrelay/agentrelay/internal/protocol"
	"github.com/agentrelay/agentrelay/internal/runtime"
	"github.com/agentrelay/agentrelay/internal/transport"
	"github.com/agentrelay/agentrelay/pkg/errorx"
	"github.com/agentrelay/agentrelay/pkg/jsonutil"
	"github.com/agentrelay/agentrelay/pkg/logger"
	"github.com/google/uuid"
)

type state int

const (
	stateNotConnected state = iota
	stateConnected
)

// Client is the high-level session-oriented client. Attempting to
// operate on a disconnected client yields a structured InvalidState
// error rather than a panic.
type Client struct {
	transportOpts *options.TransportOptions

	mu      sync.Mutex
	st      state
	tp      *transport.Transport
	rt      *runtime.Runtime
	cancel  context.CancelFunc
	model   string
	budget  *budget.Tracker
	sessionID string
}

// New builds a disconnected client bound to the given transport options
// and budget tracker (the tracker may be nil to disable budget
// enforcement).
func New(transportOpts *options.TransportOptions, tracker *budget.Tracker) *Client {
	return &Client{transportOpts: transportOpts, budget: tracker}
}

// Connect spawns the agent subprocess, starts its runtime, and performs
// the initialize handshake. An optional initial prompt is sent once
// connected.
func (c *Client) Connect(ctx context.Context, model, workingDir string, permissionFn runtime.ToolPermissionFunc, initialPrompt string) error {
	c.mu.Lock()
	if c.st == stateConnected {
		c.mu.Unlock()
		return errorx.WithCode(errorx.CodeInvalidState, "client already connected")
	}
	c.mu.Unlock()

	binPath, err := binloc.Locate(binloc.Options{
		ExplicitPath: c.transportOpts.BinaryPath,
		AutoDownload: c.transportOpts.AutoDownload,
		CacheDir:     c.transportOpts.CacheDir,
	})
	if err != nil {
		return err
	}

	args := transport.BuildArgs(transport.SpawnOptions{
		BinaryPath: binPath,
		WorkingDir: workingDir,
		Model:      model,
		Transport:  c.transportOpts,
	})

	tp := transport.New(binPath, args, func(line string) {
		logger.DebugX("client", "agent stderr: %s", line)
	})
	if err := tp.Connect(ctx); err != nil {
		return err
	}

	rt := runtime.New(tp, permissionFn)
	runCtx, cancel := context.WithCancel(context.Background())
	go rt.Run(runCtx)

	c.mu.Lock()
	c.tp = tp
	c.rt = rt
	c.cancel = cancel
	c.model = model
	c.st = stateConnected
	c.mu.Unlock()

	if _, err := rt.Initialize(ctx, 30*time.Second); err != nil {
		logger.WarnX("client", "initialize handshake failed (continuing): %v", err)
	}

	if initialPrompt != "" {
		return c.SendUserMessage(initialPrompt, "")
	}
	return nil
}

func (c *Client) requireConnected() (*runtime.Runtime, *transport.Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st != stateConnected {
		return nil, nil, errorx.WithCode(errorx.CodeInvalidState, "client is not connected")
	}
	return c.rt, c.tp, nil
}

// SendUserMessage writes one user turn to the agent, optionally tagged
// with a session identifier.
func (c *Client) SendUserMessage(text string, sessionTag string) error {
	_, tp, err := c.requireConnected()
	if err != nil {
		return err
	}

	if sessionTag != "" {
		c.mu.Lock()
		c.sessionID = sessionTag
		c.mu.Unlock()
	}

	payload := map[string]any{
		"type": protocol.TypeUser,
		"message": map[string]any{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
		},
	}
	line, err := jsonutil.MarshalString(payload)
	if err != nil {
		return errorx.WithCode(errorx.CodeInternal, "marshal user message: %v", err)
	}
	if err := tp.Send(line); err != nil {
		return errorx.WithCode(errorx.CodeConnectionLost, "send user message: %v", err)
	}
	return nil
}

// ReceiveMessages returns the runtime's channel of forwarded envelopes.
// The channel spans every turn of the session and is closed only when the
// runtime stops; it does not end at a turn's result envelope.
func (c *Client) ReceiveMessages() (<-chan *protocol.Envelope, error) {
	rt, _, err := c.requireConnected()
	if err != nil {
		return nil, err
	}
	return rt.Messages(), nil
}

// ReceiveResponse drains the message stream and returns once a result
// envelope is observed (or the stream ends), feeding any usage counters
// into the budget tracker.
func (c *Client) ReceiveResponse(ctx context.Context) ([]*protocol.Envelope, error) {
	msgs, err := c.ReceiveMessages()
	if err != nil {
		return nil, err
	}

	var collected []*protocol.Envelope
	for {
		select {
		case <-ctx.Done():
			return collected, ctx.Err()
		case env, ok := <-msgs:
			if !ok {
				return collected, errorx.WithCode(errorx.CodeConnectionLost, "stream ended before result envelope")
			}
			collected = append(collected, env)
			if env.Type == protocol.TypeResult {
				if env.Usage != nil && c.budget != nil {
					cost := 0.0
					if env.TotalCostUSD != nil {
						cost = *env.TotalCostUSD
					}
					c.budget.Update(env.Usage.InputTokens, env.Usage.OutputTokens, cost)
				}
				return collected, nil
			}
		}
	}
}

// Interrupt cancels the current operation in bounded time.
func (c *Client) Interrupt(ctx context.Context) error {
	rt, _, err := c.requireConnected()
	if err != nil {
		return err
	}
	_, err = rt.SendControlRequest(ctx, "interrupt", nil, 5*time.Second)
	return err
}

// SetPermissionMode reconfigures the agent's permission mode mid-session.
func (c *Client) SetPermissionMode(ctx context.Context, mode string) error {
	rt, _, err := c.requireConnected()
	if err != nil {
		return err
	}
	_, err = rt.SendControlRequest(ctx, "set_permission_mode", map[string]any{"mode": mode}, 10*time.Second)
	return err
}

// SetModel reconfigures the agent's active model mid-session.
func (c *Client) SetModel(ctx context.Context, model string) error {
	rt, _, err := c.requireConnected()
	if err != nil {
		return err
	}
	_, err = rt.SendControlRequest(ctx, "set_model", map[string]any{"model": model}, 10*time.Second)
	if err == nil {
		c.mu.Lock()
		c.model = model
		c.mu.Unlock()
	}
	return err
}

// BudgetStatus reports the connected session's accumulated usage against
// limit. Returns budget.Ok if no tracker was attached at construction.
func (c *Client) BudgetStatus(limit budget.Limit) budget.Status {
	if c.budget == nil {
		return budget.Ok
	}
	return c.budget.Check(limit)
}

// GetServerInfo returns the stored initialize response.
func (c *Client) GetServerInfo() (map[string]any, error) {
	rt, _, err := c.requireConnected()
	if err != nil {
		return nil, err
	}
	return rt.InitResult(), nil
}

// GetAccountInfo returns account-identifying fields from the initialize
// response, if the agent surfaced any.
func (c *Client) GetAccountInfo() (map[string]any, error) {
	info, err := c.GetServerInfo()
	if err != nil {
		return nil, err
	}
	if account, ok := info["account"].(map[string]any); ok {
		return account, nil
	}
	return nil, nil
}

// Disconnect tears down the subprocess and transitions back to
// not-connected. Safe to call more than once.
func (c *Client) Disconnect() {
	c.mu.Lock()
	tp := c.tp
	cancel := c.cancel
	c.st = stateNotConnected
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tp != nil {
		tp.Disconnect()
	}
}

// NewSessionID generates a fresh opaque session tag.
func NewSessionID() string { return uuid.New().String() }
