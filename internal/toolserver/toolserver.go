// Package toolserver hosts user-defined tools the agent can invoke through
// its control channel as if they were external services. It speaks the
// same JSON-RPC shape external MCP tool servers use, backed by
// mark3labs/mcp-go's server engine.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentrelay/agentrelay/pkg/jsonutil"
	"github.com/agentrelay/agentrelay/pkg/logger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolHandler runs one tool invocation and returns either text or image
// content, with an optional error flag.
type ToolHandler func(ctx context.Context, args map[string]any) (Content, error)

// Content is the result of a tool invocation.
type Content struct {
	Text    string
	ImageB64 string
	ImageMIME string
	IsError bool
}

// Definition describes one registered tool: name, description, an input
// JSON Schema object, and the handler that runs it.
type Definition struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     ToolHandler
}

// Server is a named collection of tool definitions, identified by
// server_name in inbound mcp_message control requests.
type Server struct {
	name    string
	backing *server.MCPServer
}

// New builds a tool server with the given name and version, declaring
// tool-call capability.
func New(name, version string) *Server {
	s := &Server{
		name:    name,
		backing: server.NewMCPServer(name, version, server.WithToolCapabilities(true)),
	}
	return s
}

// Name returns the server_name this instance is registered under.
func (s *Server) Name() string { return s.name }

// RegisterTool adds one tool to the catalog.
func (s *Server) RegisterTool(def Definition) {
	tool := mcp.NewTool(def.Name,
		mcp.WithDescription(def.Description),
	)
	props, _ := def.InputSchema["properties"].(map[string]any)
	var required []string
	switch req := def.InputSchema["required"].(type) {
	case []string:
		required = req
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				required = append(required, name)
			}
		}
	}
	tool.InputSchema = mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}

	s.backing.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		result, err := def.Handler(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result.IsError {
			return mcp.NewToolResultError(result.Text), nil
		}
		if result.ImageB64 != "" {
			return mcp.NewToolResultImage(result.Text, result.ImageB64, result.ImageMIME), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	})
}

// HandleMessage implements runtime.ToolServer: it accepts the JSON-RPC
// shaped inner message carried by an mcp_message control request and
// returns the backing server's JSON-RPC response as a generic map.
//
// Unknown methods fall through to the backing server, which replies with
// the standard method-not-found error per the JSON-RPC spec.
func (s *Server) HandleMessage(ctx context.Context, message map[string]any) (map[string]any, error) {
	raw, err := jsonutil.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal mcp_message: %w", err)
	}

	resp := s.backing.HandleMessage(ctx, json.RawMessage(raw))
	if resp == nil {
		return map[string]any{}, nil
	}

	encoded, err := jsonutil.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal mcp response: %w", err)
	}

	var out map[string]any
	if err := jsonutil.Unmarshal(encoded, &out); err != nil {
		logger.WarnX("toolserver", "failed to decode backing response as map: %v", err)
		return map[string]any{}, nil
	}
	return out, nil
}
