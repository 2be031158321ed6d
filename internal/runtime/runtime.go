// Package runtime implements the per-session query runtime: the single
// demultiplexer between the subprocess transport and the high-level
// client. It tracks outstanding outbound control requests, dispatches
// inbound control requests to local handlers, and forwards everything
// else to the client's message stream.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/agentrelay/agentrelay/internal/protocol"
	"github.com/agentrelay/agentrelay/internal/transport"
	"github.com/agentrelay/agentrelay/pkg/errorx"
	"github.com/agentrelay/agentrelay/pkg/jsonutil"
	"github.com/agentrelay/agentrelay/pkg/logger"
	"github.com/google/uuid"
)

// ToolPermissionContext is passed to the caller-provided permission
// callback alongside the tool name and input.
type ToolPermissionContext struct {
	Suggestions map[string]any
}

// ToolPermissionDecision is the callback's verdict for a can_use_tool
// control request.
type ToolPermissionDecision struct {
	Allow            bool
	ReplacedInput    map[string]any
	UpdatedToolSet   []string
	DenyMessage      string
	InterruptOnDeny  bool
}

// ToolPermissionFunc decides whether a requested tool invocation proceeds.
type ToolPermissionFunc func(toolName string, input map[string]any, ctx ToolPermissionContext) ToolPermissionDecision

// HookHandler answers one hook_callback control request for a registered
// callback id.
type HookHandler func(hookName string, input map[string]any) (map[string]any, error)

// ToolServer is the in-process MCP-shaped server interface a named
// mcp_message control request is routed to (component E implements this).
type ToolServer interface {
	HandleMessage(ctx context.Context, message map[string]any) (map[string]any, error)
}

// waiter is a one-shot reply slot for an outstanding outbound control
// request.
type waiter struct {
	reply chan *protocol.ControlReply
}

// Runtime is the per-session state machine sitting between the transport
// and the high-level client.
type Runtime struct {
	tp     *transport.Transport
	sender *transport.StdinSender

	permissionFn ToolPermissionFunc

	mu               sync.Mutex
	outstanding      map[string]*waiter
	hookHandlers     map[string]HookHandler
	toolServers      map[string]ToolServer
	initResult       map[string]any
	terminal         bool
	terminalErr      error

	outboundCh chan *protocol.Envelope
	doneCh     chan struct{}
}

// New builds a Runtime bound to an already-connected transport.
func New(tp *transport.Transport, permissionFn ToolPermissionFunc) *Runtime {
	return &Runtime{
		tp:           tp,
		sender:       tp.CloneStdinSender(),
		permissionFn: permissionFn,
		outstanding:  make(map[string]*waiter),
		hookHandlers: make(map[string]HookHandler),
		toolServers:  make(map[string]ToolServer),
		outboundCh:   make(chan *protocol.Envelope, 64),
		doneCh:       make(chan struct{}),
	}
}

// RegisterHookHandler associates a key with a handler for hook_callback
// control requests. An inbound request is matched by its hook_name field;
// no separate callback id is read from the request.
func (r *Runtime) RegisterHookHandler(callbackID string, h HookHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hookHandlers[callbackID] = h
}

// RegisterToolServer associates a server name with an in-process tool
// server for mcp_message control requests.
func (r *Runtime) RegisterToolServer(name string, s ToolServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolServers[name] = s
}

// Messages returns the channel of envelopes forwarded to the high-level
// client — everything that isn't a control envelope the runtime itself
// consumes.
func (r *Runtime) Messages() <-chan *protocol.Envelope { return r.outboundCh }

// Run starts the single background demultiplexer loop. It returns when
// the transport's stream ends or ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) {
	defer close(r.outboundCh)
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			r.failAllWaiters(errorx.WithCode(errorx.CodeConnectionLost, "runtime context cancelled"))
			return
		case res, ok := <-r.tp.Receive():
			if !ok {
				r.setTerminal(errorx.WithCode(errorx.CodeConnectionLost, "transport stream closed"))
				return
			}
			if res.Err != nil {
				r.setTerminal(res.Err)
				return
			}
			r.handle(ctx, res.Envelope)
		}
	}
}

func (r *Runtime) handle(ctx context.Context, env *protocol.Envelope) {
	switch {
	case env.Type == protocol.TypeControlResponse:
		r.resolveWaiter(env.ControlResponse)
	case env.Type == protocol.TypeControlRequest:
		r.dispatchInbound(ctx, env)
	case env.IsEscapedControlRequest():
		// A system envelope whose subtype escaped framing; route into the
		// same inbound dispatch path.
		r.dispatchInbound(ctx, env)
	default:
		select {
		case r.outboundCh <- env:
		default:
			logger.WarnX("runtime", "outbound channel full, dropping envelope type %q", env.Type)
		}
	}
}

func (r *Runtime) resolveWaiter(reply *protocol.ControlReply) {
	if reply == nil {
		return
	}
	r.mu.Lock()
	w, ok := r.outstanding[reply.RequestID]
	if ok {
		delete(r.outstanding, reply.RequestID)
	}
	r.mu.Unlock()

	if !ok {
		logger.WarnX("runtime", "late control response for request_id=%s dropped", reply.RequestID)
		return
	}
	w.reply <- reply
}

func (r *Runtime) dispatchInbound(ctx context.Context, env *protocol.Envelope) {
	req := env.ControlRequest
	if req == nil {
		return
	}
	requestID := env.RequestID

	defer func() {
		if p := recover(); p != nil {
			logger.ErrorX("runtime", "control handler panicked: %v", p)
			r.sendControlError(requestID, "handler panic")
		}
	}()

	switch req.Subtype {
	case "can_use_tool":
		r.handleCanUseTool(requestID, req)
	case "hook_callback":
		r.handleHookCallback(requestID, req)
	case "mcp_message":
		r.handleMCPMessage(ctx, requestID, req)
	default:
		r.sendControlError(requestID, "malformed control request: unknown subtype "+req.Subtype)
	}
}

func (r *Runtime) handleCanUseTool(requestID string, req *protocol.ControlRequest) {
	if r.permissionFn == nil {
		r.sendControlSuccess(requestID, map[string]any{"behavior": "allow"})
		return
	}

	decision := r.permissionFn(req.ToolName, req.Input, ToolPermissionContext{})
	if decision.Allow {
		result := map[string]any{"allow": true}
		if decision.ReplacedInput != nil {
			result["updatedInput"] = decision.ReplacedInput
		}
		if decision.UpdatedToolSet != nil {
			result["updatedPermissions"] = decision.UpdatedToolSet
		}
		r.sendControlSuccess(requestID, result)
		return
	}

	r.sendControlSuccess(requestID, map[string]any{
		"allow":     false,
		"reason":    decision.DenyMessage,
		"interrupt": decision.InterruptOnDeny,
	})
}

func (r *Runtime) handleHookCallback(requestID string, req *protocol.ControlRequest) {
	r.mu.Lock()
	handler, ok := r.hookHandlers[req.HookName]
	r.mu.Unlock()

	if !ok {
		r.sendControlSuccess(requestID, map[string]any{})
		return
	}

	result, err := handler(req.HookName, req.HookInput)
	if err != nil {
		r.sendControlError(requestID, err.Error())
		return
	}
	r.sendControlSuccess(requestID, result)
}

func (r *Runtime) handleMCPMessage(ctx context.Context, requestID string, req *protocol.ControlRequest) {
	r.mu.Lock()
	server, ok := r.toolServers[req.ServerName]
	r.mu.Unlock()

	if !ok {
		r.sendControlError(requestID, "unknown tool server: "+req.ServerName)
		return
	}

	result, err := server.HandleMessage(ctx, req.Message)
	if err != nil {
		r.sendControlError(requestID, err.Error())
		return
	}
	r.sendControlSuccess(requestID, result)
}

func (r *Runtime) sendControlSuccess(requestID string, result map[string]any) {
	r.writeControlResponse(requestID, "success", result, "")
}

func (r *Runtime) sendControlError(requestID, message string) {
	r.writeControlResponse(requestID, "error", nil, message)
}

func (r *Runtime) writeControlResponse(requestID, subtype string, result map[string]any, errMsg string) {
	resp := map[string]any{
		"request_id": requestID,
		"subtype":    subtype,
	}
	if result != nil {
		resp["response"] = result
	}
	if errMsg != "" {
		resp["error"] = errMsg
	}
	payload := map[string]any{
		"type":     protocol.TypeControlResponse,
		"response": resp,
	}

	line, err := jsonutil.MarshalString(payload)
	if err != nil {
		logger.ErrorX("runtime", "marshal control response: %v", err)
		return
	}
	// Written through the cloned stdin sender, not the main transport
	// lock, so a long-running Receive loop elsewhere cannot deadlock the
	// response path.
	if err := r.sender.Send(line); err != nil {
		logger.WarnX("runtime", "failed to write control response: %v", err)
	}
}

// SendControlRequest issues an outbound control request (initialize,
// interrupt, set_permission_mode, set_model) and waits for the matching
// response with the given timeout. The interrupt subtype in particular
// must return in bounded time regardless of current stream activity;
// this is achieved by writing through the cloned stdin sender rather than
// the main receive path.
func (r *Runtime) SendControlRequest(ctx context.Context, subtype string, payload map[string]any, timeout time.Duration) (*protocol.ControlReply, error) {
	requestID := uuid.New().String()
	w := &waiter{reply: make(chan *protocol.ControlReply, 1)}

	r.mu.Lock()
	if r.terminal {
		err := r.terminalErr
		r.mu.Unlock()
		return nil, err
	}
	r.outstanding[requestID] = w
	r.mu.Unlock()

	request := map[string]any{"subtype": subtype}
	for k, v := range payload {
		request[k] = v
	}
	line, err := jsonutil.MarshalString(map[string]any{
		"type":       protocol.TypeControlRequest,
		"request_id": requestID,
		"request":    request,
	})
	if err != nil {
		r.removeWaiter(requestID)
		return nil, errorx.WithCode(errorx.CodeInternal, "marshal control request: %v", err)
	}

	if err := r.sender.Send(line); err != nil {
		r.removeWaiter(requestID)
		return nil, errorx.WithCode(errorx.CodeControlRequestFailure, "write control request: %v", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-w.reply:
		if reply.Subtype == "error" {
			return reply, errorx.WithCode(errorx.CodeControlRequestFailure, "%s", reply.Error)
		}
		return reply, nil
	case <-ctx.Done():
		r.removeWaiter(requestID)
		return nil, ctx.Err()
	case <-timer.C:
		r.removeWaiter(requestID)
		return nil, errorx.WithCode(errorx.CodeTimeout, "control request %q timed out after %s", subtype, timeout)
	}
}

func (r *Runtime) removeWaiter(requestID string) {
	r.mu.Lock()
	delete(r.outstanding, requestID)
	r.mu.Unlock()
}

func (r *Runtime) failAllWaiters(err error) {
	r.mu.Lock()
	waiters := r.outstanding
	r.outstanding = make(map[string]*waiter)
	r.terminal = true
	r.terminalErr = err
	r.mu.Unlock()

	for _, w := range waiters {
		w.reply <- &protocol.ControlReply{Subtype: "error", Error: err.Error()}
	}
}

func (r *Runtime) setTerminal(err error) {
	r.failAllWaiters(err)
}

// Initialize sends the streaming-mode handshake and stores the response
// payload for the client to expose as server capability info.
func (r *Runtime) Initialize(ctx context.Context, timeout time.Duration) (map[string]any, error) {
	reply, err := r.SendControlRequest(ctx, "initialize", nil, timeout)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.initResult = reply.Response
	r.mu.Unlock()
	return reply.Response, nil
}

// InitResult returns the stored initialize response, if any.
func (r *Runtime) InitResult() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initResult
}

// Done is closed when the runtime's loop exits.
func (r *Runtime) Done() <-chan struct{} { return r.doneCh }
