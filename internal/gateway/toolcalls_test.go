package gateway

import "testing"

func TestDetectToolCallExplicitKey(t *testing.T) {
	tools := []Tool{{Function: ToolFunction{Name: "search"}}}
	text := `{"function":"search","query":"go"}`
	call := detectToolCall(text, tools, true)
	if call == nil || call.Function.Name != "search" {
		t.Fatalf("expected explicit function key to name the call, got %+v", call)
	}
	if call.Function.Arguments != text {
		t.Fatalf("expected the original text to become the arguments payload")
	}
}

func TestDetectToolCallStructuralMatchAllRequired(t *testing.T) {
	tools := []Tool{
		{Function: ToolFunction{Name: "get_weather", Parameters: map[string]any{
			"properties": map[string]any{"city": map[string]any{}, "unit": map[string]any{}},
			"required":   []any{"city"},
		}}},
	}
	text := `{"city":"nyc"}`
	call := detectToolCall(text, tools, true)
	if call == nil || call.Function.Name != "get_weather" {
		t.Fatalf("expected structural match on required property, got %+v", call)
	}
}

func TestDetectToolCallStructuralMatchHalfProperties(t *testing.T) {
	tools := []Tool{
		{Function: ToolFunction{Name: "book_flight", Parameters: map[string]any{
			"properties": map[string]any{"origin": map[string]any{}, "destination": map[string]any{}},
		}}},
	}
	text := `{"origin":"SFO"}`
	call := detectToolCall(text, tools, false)
	if call == nil || call.Function.Name != "book_flight" {
		t.Fatalf("expected >=50%% property match to select the tool, got %+v", call)
	}
}

func TestDetectToolCallHalfPropertiesSkippedWhenStrict(t *testing.T) {
	tools := []Tool{
		{Function: ToolFunction{Name: "book_flight", Parameters: map[string]any{
			"properties": map[string]any{"origin": map[string]any{}, "destination": map[string]any{}},
		}}},
	}
	call := detectToolCall(`{"origin":"SFO"}`, tools, true)
	if call != nil {
		t.Fatalf("expected strict mode to skip the half-properties heuristic, got %+v", call)
	}
}

func TestDetectToolCallFallsBackToFirstTool(t *testing.T) {
	tools := []Tool{{Function: ToolFunction{Name: "only_tool"}}}
	call := detectToolCall(`{"unrelated":"stuff"}`, tools, false)
	if call == nil || call.Function.Name != "only_tool" {
		t.Fatalf("expected fallback to the only declared tool, got %+v", call)
	}
}

func TestDetectToolCallStrictModeDoesNotFallBackToFirstTool(t *testing.T) {
	tools := []Tool{{Function: ToolFunction{Name: "only_tool"}}}
	call := detectToolCall(`{"unrelated":"stuff"}`, tools, true)
	if call != nil {
		t.Fatalf("expected strict mode to return nil rather than guess, got %+v", call)
	}
}

func TestDetectToolCallNoToolsDeclared(t *testing.T) {
	if call := detectToolCall(`{"function":"x"}`, nil, true); call != nil {
		t.Fatalf("expected nil when no tools were declared, got %+v", call)
	}
}

func TestDetectToolCallNonJSONText(t *testing.T) {
	tools := []Tool{{Function: ToolFunction{Name: "only_tool"}}}
	if call := detectToolCall("just plain prose", tools, true); call != nil {
		t.Fatalf("expected nil for non-JSON assistant text, got %+v", call)
	}
}
