package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/agentrelay/agentrelay/internal/transport"
)

func newEchoTransport(t *testing.T, line string) *transport.Transport {
	t.Helper()
	// The JSON line is passed as its own argv element ($1) so shell quoting
	// never has to deal with the embedded double quotes.
	tp := transport.New("sh", []string{"-c", `printf '%s\n' "$1"`, "sh", line}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Connect(ctx); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}
	return tp
}

func TestDispatchInboundRoutesCanUseToolToPermissionFn(t *testing.T) {
	line := `{"type":"control_request","request_id":"r1","request":{"subtype":"can_use_tool","tool_name":"bash","input":{}}}`
	tp := newEchoTransport(t, line)

	called := make(chan string, 1)
	permissionFn := func(toolName string, input map[string]any, ctx ToolPermissionContext) ToolPermissionDecision {
		called <- toolName
		return ToolPermissionDecision{Allow: true}
	}

	rt := New(tp, permissionFn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go rt.Run(ctx)

	select {
	case name := <-called:
		if name != "bash" {
			t.Fatalf("expected the tool name from the control request, got %q", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the permission callback")
	}
}

func TestCanUseToolDefaultsToAllowWithNoPermissionFn(t *testing.T) {
	line := `{"type":"control_request","request_id":"r1","request":{"subtype":"can_use_tool","tool_name":"bash","input":{}}}`
	tp := newEchoTransport(t, line)

	rt := New(tp, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go rt.Run(ctx)

	// No assertion beyond: this must not panic or deadlock even though
	// nothing consumes rt.Messages() and the default-allow path writes a
	// control response through the (now-exited) child's stdin.
	<-ctx.Done()
}

func TestMessagesForwardsNonControlEnvelopes(t *testing.T) {
	line := `{"type":"assistant","session_id":"s1","message":{"role":"assistant","content":[{"type":"text","text":"hi"}]}}`
	tp := newEchoTransport(t, line)

	rt := New(tp, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go rt.Run(ctx)

	select {
	case env := <-rt.Messages():
		if env.Type != "assistant" {
			t.Fatalf("expected the assistant envelope forwarded, got %+v", env)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the forwarded envelope")
	}
}

func TestSendControlRequestTimesOutWithoutReply(t *testing.T) {
	tp := transport.New("sh", []string{"-c", "sleep 5"}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tp.Connect(ctx); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	rt := New(tp, nil)
	go rt.Run(ctx)

	_, err := rt.SendControlRequest(ctx, "initialize", nil, 100*time.Millisecond)
	if err == nil {
		t.Fatalf("expected a timeout error when no control response ever arrives")
	}
}
