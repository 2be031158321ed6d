package conversation

import (
	"testing"
	"time"
)

func TestGetOrCreateGeneratesID(t *testing.T) {
	s := NewStore(time.Hour)
	c := s.GetOrCreate("")
	if c.ID == "" {
		t.Fatalf("expected a generated id")
	}
	if got, ok := s.Get(c.ID); !ok || got != c {
		t.Fatalf("expected the created conversation to be retrievable")
	}
}

func TestAppendTouchesMetadata(t *testing.T) {
	s := NewStore(time.Hour)
	c := s.GetOrCreate("")
	s.Append(c.ID, Message{Role: "user", TextParts: []string{"hi"}})
	if len(c.Messages) != 1 || c.Metadata.TurnCount != 1 {
		t.Fatalf("expected one appended message and turn count incremented")
	}
}

func TestCleanupRemovesIdleConversations(t *testing.T) {
	s := NewStore(time.Millisecond)
	c := s.GetOrCreate("")
	c.UpdatedAt = time.Now().Add(-time.Hour)
	s.Cleanup()
	if _, ok := s.Get(c.ID); ok {
		t.Fatalf("expected idle conversation to be evicted")
	}
}

func TestDeriveContextKeepsAllSystemMessages(t *testing.T) {
	history := []Message{
		{Role: "system", TextParts: []string{"you are a helpful assistant"}},
		{Role: "user", TextParts: []string{"hi"}},
		{Role: "assistant", TextParts: []string{"hello"}},
	}
	out := DeriveContext(history, 100000)
	if len(out) != 3 {
		t.Fatalf("expected all messages kept under a generous budget, got %d", len(out))
	}
}

func TestDeriveContextTrimsOldestNonSystemFirst(t *testing.T) {
	big := make([]string, 0)
	for i := 0; i < 200; i++ {
		big = append(big, "word")
	}
	history := []Message{
		{Role: "system", TextParts: []string{"sys"}},
		{Role: "user", TextParts: big},
		{Role: "assistant", TextParts: []string{"reply one"}},
		{Role: "user", TextParts: []string{"reply two"}},
	}
	out := DeriveContext(history, 10)
	if len(out) == 0 {
		t.Fatalf("expected at least one message kept even under a tiny budget")
	}
	if out[0].Role != "system" {
		t.Fatalf("expected the system message first in the restored chronological order")
	}
	if len(out) != 3 {
		t.Fatalf("expected the oldest, oversized user message trimmed and the two newest kept, got %d messages", len(out))
	}
}

func TestDeriveContextRestoresChronologicalOrder(t *testing.T) {
	history := []Message{
		{Role: "user", TextParts: []string{"first"}},
		{Role: "system", TextParts: []string{"sys"}},
		{Role: "user", TextParts: []string{"second"}},
	}
	out := DeriveContext(history, 100000)
	if len(out) != 3 || out[0].Role != "user" || out[1].Role != "system" || out[2].Role != "user" {
		t.Fatalf("expected original interleaved order preserved, got %+v", out)
	}
}

func TestDeriveContextWalksNonSystemTailAgainstFullBudget(t *testing.T) {
	history := []Message{
		{Role: "system", TextParts: []string{string(make([]byte, 200))}},
	}
	for i := 0; i < 50; i++ {
		history = append(history, Message{Role: "user", TextParts: []string{string(make([]byte, 40))}})
	}

	out := DeriveContext(history, 100)

	nonSystemKept := 0
	for _, m := range out {
		if m.Role != "system" {
			nonSystemKept++
		}
	}
	if nonSystemKept != 10 {
		t.Fatalf("expected 10 non-system messages kept against the full 100-token budget, got %d", nonSystemKept)
	}
	if len(out) != 11 {
		t.Fatalf("expected the system message preserved in addition to the 10 kept, got %d total", len(out))
	}
}

func TestDeriveContextNeverMutatesStoredHistory(t *testing.T) {
	history := []Message{
		{Role: "user", TextParts: []string{"a"}},
		{Role: "user", TextParts: []string{"b"}},
	}
	_ = DeriveContext(history, 1)
	if len(history) != 2 {
		t.Fatalf("expected the original history slice untouched")
	}
}
