package gateway

import (
	"strings"
	"testing"
)

func TestToConversationMessageMapsContent(t *testing.T) {
	cm := toConversationMessage(ChatMessage{Role: "user", Content: "hello"})
	if cm.Role != "user" || len(cm.TextParts) != 1 || cm.TextParts[0] != "hello" {
		t.Fatalf("unexpected conversion: %+v", cm)
	}
}

func TestToConversationMessageTracksImageCount(t *testing.T) {
	cm := toConversationMessage(ChatMessage{Role: "user", Content: "look", ImageURLs: []string{"a", "b"}})
	if !cm.HasImage || cm.ImageCount != 2 {
		t.Fatalf("expected image count tracked, got %+v", cm)
	}
}

func TestToConversationMessagesPreservesOrder(t *testing.T) {
	msgs := []ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
	}
	out := toConversationMessages(msgs)
	if len(out) != 2 || out[0].Role != "system" || out[1].Role != "user" {
		t.Fatalf("expected order preserved, got %+v", out)
	}
}

func TestSerializePromptTagsEachMessageByRole(t *testing.T) {
	out := serializePrompt(toConversationMessages([]ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "what time is it"},
	}))
	if !strings.Contains(out, "system: be terse") {
		t.Fatalf("expected system preamble tagged, got %q", out)
	}
	if !strings.Contains(out, "user: what time is it") {
		t.Fatalf("expected user turn tagged, got %q", out)
	}
	if strings.Index(out, "system:") > strings.Index(out, "user:") {
		t.Fatalf("expected system message to precede user message in output")
	}
}
