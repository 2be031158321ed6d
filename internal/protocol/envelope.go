// Package protocol decodes the agent CLI's line-delimited JSON envelopes
// into a strongly-shaped sum type and tolerates unknown variants so the
// session survives a protocol the agent has since extended.
package protocol

import (
	"github.com/agentrelay/agentrelay/pkg/jsonutil"
	"github.com/agentrelay/agentrelay/pkg/logger"
)

// Envelope types, one per value of the wire "type" discriminant.
const (
	TypeUser            = "user"
	TypeAssistant       = "assistant"
	TypeSystem          = "system"
	TypeResult          = "result"
	TypeStreamEvent     = "stream_event"
	TypeControlRequest  = "control_request"
	TypeControlResponse = "control_response"
)

// Content block discriminants nested under assistant/user message.content.
const (
	BlockText       = "text"
	BlockThinking   = "thinking"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// controlSubtypePrefix marks a system envelope that is really a control
// request that escaped normal framing.
const controlSubtypePrefix = "sdk_control:"

// Envelope is one decoded line from the agent's stdout stream.
type Envelope struct {
	Type              string          `json:"type"`
	Subtype           string          `json:"subtype,omitempty"`
	SessionID         string          `json:"session_id,omitempty"`
	ParentToolUseID   *string         `json:"parent_tool_use_id,omitempty"`
	Message           *Message        `json:"message,omitempty"`
	DurationMS        int64           `json:"duration_ms,omitempty"`
	IsError           bool            `json:"is_error,omitempty"`
	NumTurns          int             `json:"num_turns,omitempty"`
	TotalCostUSD      *float64        `json:"total_cost_usd,omitempty"`
	Usage             *Usage          `json:"usage,omitempty"`
	ControlRequest    *ControlRequest `json:"request,omitempty"`
	ControlResponse   *ControlReply   `json:"response,omitempty"`
	RequestID         string          `json:"request_id,omitempty"`

	// raw preserves the full decoded line for content the typed fields
	// above don't model, so round-tripping never drops data.
	raw map[string]any
}

// Message is the nested message object on assistant/user envelopes.
type Message struct {
	Role    string         `json:"role,omitempty"`
	Model   string         `json:"model,omitempty"`
	Content []ContentBlock `json:"content,omitempty"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// Usage reports token counters as given by the agent.
type Usage struct {
	InputTokens              int64 `json:"input_tokens,omitempty"`
	OutputTokens             int64 `json:"output_tokens,omitempty"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens,omitempty"`
}

// ContentBlock is one element of message.content. Unknown block types are
// preserved via Opaque so a round trip never loses data.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`
	// thinking
	Thinking string `json:"thinking,omitempty"`
	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`

	// Opaque carries the full decoded object for block types not listed
	// above, so unknown variants survive round-trip.
	Opaque map[string]any `json:"-"`
}

// contentBlockFields mirrors ContentBlock without the custom marshal
// methods, so UnmarshalJSON/MarshalJSON can delegate to the default
// struct codec without recursing into themselves.
type contentBlockFields ContentBlock

// UnmarshalJSON decodes the known block variants into their typed fields.
// A type outside BlockText/BlockThinking/BlockToolUse/BlockToolResult is
// stashed whole in Opaque instead, so it survives being re-marshaled.
func (c *ContentBlock) UnmarshalJSON(data []byte) error {
	var fields contentBlockFields
	if err := jsonutil.Unmarshal(data, &fields); err != nil {
		return err
	}
	*c = ContentBlock(fields)

	switch c.Type {
	case BlockText, BlockThinking, BlockToolUse, BlockToolResult:
		return nil
	default:
		var raw map[string]any
		if err := jsonutil.Unmarshal(data, &raw); err != nil {
			return err
		}
		c.Opaque = raw
		return nil
	}
}

// MarshalJSON re-emits an opaque block verbatim from its saved raw
// object; known variants marshal through their typed fields as usual.
func (c ContentBlock) MarshalJSON() ([]byte, error) {
	if c.Opaque != nil {
		return jsonutil.Marshal(c.Opaque)
	}
	return jsonutil.Marshal(contentBlockFields(c))
}

// ControlRequest is the payload of a control_request envelope's "request"
// field.
type ControlRequest struct {
	Subtype   string          `json:"subtype"`
	ToolName  string          `json:"tool_name,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	HookName  string          `json:"hook_name,omitempty"`
	HookInput map[string]any  `json:"hook_input,omitempty"`
	ServerName string         `json:"server_name,omitempty"`
	Message   map[string]any  `json:"message,omitempty"`
	Extra     map[string]any  `json:"-"`
}

// ControlReply is the payload of a control_response envelope's "response"
// field.
type ControlReply struct {
	RequestID string         `json:"request_id"`
	Subtype   string         `json:"subtype"`
	Response  map[string]any `json:"response,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// IsSidechain reports whether this envelope belongs to a sub-agent's
// nested turn. Presence of a non-null, non-empty string parent_tool_use_id
// is the only reliable discriminator; explicit null, absent, empty, or
// non-string values are not sidechain.
func (e *Envelope) IsSidechain() bool {
	return e.ParentToolUseID != nil && *e.ParentToolUseID != ""
}

// IsEscapedControlRequest reports whether a system envelope is actually a
// control request that escaped normal framing.
func (e *Envelope) IsEscapedControlRequest() bool {
	return e.Type == TypeSystem && len(e.Subtype) >= len(controlSubtypePrefix) &&
		e.Subtype[:len(controlSubtypePrefix)] == controlSubtypePrefix
}

// Parse decodes one line of agent output. Decode failure is returned to
// the caller for logging; it never panics.
func Parse(line []byte) (*Envelope, error) {
	var env Envelope
	if err := jsonutil.Unmarshal(line, &env); err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := jsonutil.Unmarshal(line, &raw); err == nil {
		env.raw = raw
	}
	return &env, nil
}

// ParseLenient decodes a line and, on an unknown or malformed envelope,
// logs and returns nil rather than failing the stream — unknown
// "type" values are expected as the agent's protocol evolves.
func ParseLenient(line []byte) *Envelope {
	env, err := Parse(line)
	if err != nil {
		logger.WarnX("protocol", "skipping unparseable line: %v", err)
		return nil
	}
	switch env.Type {
	case TypeUser, TypeAssistant, TypeSystem, TypeResult, TypeStreamEvent, TypeControlRequest, TypeControlResponse:
		return env
	default:
		logger.WarnX("protocol", "skipping unknown envelope type %q", env.Type)
		return nil
	}
}

// Raw returns the fully decoded generic map backing this envelope, for
// callers that need a field the typed struct doesn't model.
func (e *Envelope) Raw() map[string]any { return e.raw }
