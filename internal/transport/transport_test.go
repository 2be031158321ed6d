package transport

import (
	"context"
	"testing"
	"time"
)

func TestRingBufferKeepsOnlyRecentBytes(t *testing.T) {
	rb := newRingBuffer(10)
	rb.Write("0123456789abcdef")
	got := rb.String()
	if len(got) > 10 {
		t.Fatalf("expected ring buffer capped at 10 bytes, got %d: %q", len(got), got)
	}
	if got != "789abcdef\n" {
		t.Fatalf("expected the most recent bytes retained, got %q", got)
	}
}

func TestConnectSendReceiveRoundTrip(t *testing.T) {
	tp := New("cat", nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Connect(ctx); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	line := `{"type":"result","duration_ms":1}`
	if err := tp.Send(line); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	select {
	case res := <-tp.Receive():
		if res.Err != nil {
			t.Fatalf("unexpected receive error: %v", res.Err)
		}
		if res.Envelope == nil || res.Envelope.Type != "result" {
			t.Fatalf("expected the echoed result envelope, got %+v", res.Envelope)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the echoed envelope")
	}
}

func TestReceiveClosesWhenChildExits(t *testing.T) {
	tp := New("true", nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Connect(ctx); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	select {
	case res, ok := <-tp.Receive():
		if !ok {
			t.Fatalf("expected one terminal error result before the channel closes")
		}
		if res.Err == nil {
			t.Fatalf("expected a terminal error reporting the child exited without output")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the terminal result")
	}

	select {
	case _, ok := <-tp.Receive():
		if ok {
			t.Fatalf("expected the receive channel closed after the terminal result")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the receive channel to close")
	}
}
