package protocol

import (
	"testing"

	"github.com/agentrelay/agentrelay/pkg/jsonutil"
)

func TestParseAssistantEnvelope(t *testing.T) {
	line := []byte(`{"type":"assistant","session_id":"s1","message":{"role":"assistant","content":[{"type":"text","text":"hi"}]}}`)
	env, err := Parse(line)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if env.Type != TypeAssistant || env.Message == nil || len(env.Message.Content) != 1 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Message.Content[0].Text != "hi" {
		t.Fatalf("expected text block content preserved")
	}
}

func TestIsSidechainRequiresNonEmptyParent(t *testing.T) {
	empty := ""
	env := &Envelope{ParentToolUseID: &empty}
	if env.IsSidechain() {
		t.Fatalf("expected empty-string parent id to not count as sidechain")
	}

	id := "tool_1"
	env2 := &Envelope{ParentToolUseID: &id}
	if !env2.IsSidechain() {
		t.Fatalf("expected a non-empty parent id to mark sidechain")
	}

	env3 := &Envelope{}
	if env3.IsSidechain() {
		t.Fatalf("expected absent parent id to not count as sidechain")
	}
}

func TestIsEscapedControlRequest(t *testing.T) {
	env := &Envelope{Type: TypeSystem, Subtype: "sdk_control:initialize"}
	if !env.IsEscapedControlRequest() {
		t.Fatalf("expected sdk_control:-prefixed subtype to be detected as escaped")
	}

	env2 := &Envelope{Type: TypeSystem, Subtype: "info"}
	if env2.IsEscapedControlRequest() {
		t.Fatalf("expected a plain system subtype to not be treated as escaped")
	}
}

func TestParseLenientSkipsUnknownType(t *testing.T) {
	env := ParseLenient([]byte(`{"type":"some_future_type"}`))
	if env != nil {
		t.Fatalf("expected unknown envelope type to be skipped")
	}
}

func TestParseLenientSkipsMalformedJSON(t *testing.T) {
	env := ParseLenient([]byte(`not json`))
	if env != nil {
		t.Fatalf("expected malformed line to be skipped, not panic")
	}
}

func TestContentBlockKnownVariantDecodesTypedFields(t *testing.T) {
	var block ContentBlock
	if err := jsonutil.Unmarshal([]byte(`{"type":"tool_use","id":"t1","name":"search","input":{"q":"go"}}`), &block); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if block.Type != BlockToolUse || block.ID != "t1" || block.Name != "search" {
		t.Fatalf("unexpected typed decode: %+v", block)
	}
	if block.Opaque != nil {
		t.Fatalf("expected no opaque fallback for a known variant, got %+v", block.Opaque)
	}
}

func TestContentBlockUnknownVariantRoundTripsViaOpaque(t *testing.T) {
	original := []byte(`{"type":"redacted_thinking","data":"abc123","extra":{"nested":true}}`)

	var block ContentBlock
	if err := jsonutil.Unmarshal(original, &block); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if block.Type != "redacted_thinking" {
		t.Fatalf("expected Type populated even for an unknown variant, got %q", block.Type)
	}
	if block.Opaque == nil || block.Opaque["data"] != "abc123" {
		t.Fatalf("expected the full object preserved in Opaque, got %+v", block.Opaque)
	}

	out, err := jsonutil.Marshal(block)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	var roundTripped map[string]any
	if err := jsonutil.Unmarshal(out, &roundTripped); err != nil {
		t.Fatalf("unexpected re-decode error: %v", err)
	}
	if roundTripped["type"] != "redacted_thinking" || roundTripped["data"] != "abc123" {
		t.Fatalf("expected unknown variant to survive round-trip unchanged, got %+v", roundTripped)
	}
	nested, ok := roundTripped["extra"].(map[string]any)
	if !ok || nested["nested"] != true {
		t.Fatalf("expected nested object preserved in round trip, got %+v", roundTripped["extra"])
	}
}

func TestParseLenientAcceptsKnownType(t *testing.T) {
	env := ParseLenient([]byte(`{"type":"result","duration_ms":10}`))
	if env == nil || env.Type != TypeResult {
		t.Fatalf("expected result envelope accepted, got %+v", env)
	}
}
