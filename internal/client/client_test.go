package client

import (
	"testing"

	"github.com/agentrelay/agentrelay/internal/budget"
	"github.com/agentrelay/agentrelay/internal/options"
)

func newDisconnectedClient() *Client {
	return New(options.NewTransportOptions(), budget.NewTracker())
}

func TestSendUserMessageRequiresConnection(t *testing.T) {
	c := newDisconnectedClient()
	if err := c.SendUserMessage("hi", ""); err == nil {
		t.Fatalf("expected an error sending on a disconnected client")
	}
}

func TestReceiveMessagesRequiresConnection(t *testing.T) {
	c := newDisconnectedClient()
	if _, err := c.ReceiveMessages(); err == nil {
		t.Fatalf("expected an error receiving on a disconnected client")
	}
}

func TestInterruptRequiresConnection(t *testing.T) {
	c := newDisconnectedClient()
	if err := c.Interrupt(nil); err == nil {
		t.Fatalf("expected an error interrupting a disconnected client")
	}
}

func TestDisconnectIsIdempotentOnFreshClient(t *testing.T) {
	c := newDisconnectedClient()
	c.Disconnect()
	c.Disconnect()
}

func TestBudgetStatusOkWithNoTracker(t *testing.T) {
	c := New(options.NewTransportOptions(), nil)
	if got := c.BudgetStatus(budget.Limit{}); got != budget.Ok {
		t.Fatalf("expected Ok with no tracker attached, got %v", got)
	}
}

func TestBudgetStatusReflectsTrackerUsage(t *testing.T) {
	tracker := budget.NewTracker()
	tracker.Update(1000, 1000, 0)
	c := New(options.NewTransportOptions(), tracker)

	got := c.BudgetStatus(budget.Limit{MaxTokens: 500})
	if got != budget.Exceeded {
		t.Fatalf("expected Exceeded once usage clears the limit, got %v", got)
	}
}

func TestNewSessionIDProducesDistinctValues(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == "" || b == "" || a == b {
		t.Fatalf("expected two distinct non-empty session ids, got %q and %q", a, b)
	}
}
