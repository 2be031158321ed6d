package protocol

import "testing"

func TestToolChoiceUnmarshalLiteral(t *testing.T) {
	var tc ToolChoice
	if err := tc.UnmarshalJSON([]byte(`"auto"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tc.IsAuto() || tc.IsNamed() {
		t.Fatalf("expected auto literal, got %+v", tc)
	}
}

func TestToolChoiceUnmarshalNamedFunction(t *testing.T) {
	var tc ToolChoice
	if err := tc.UnmarshalJSON([]byte(`{"type":"function","function":{"name":"get_weather"}}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tc.IsNamed() || tc.FunctionName != "get_weather" {
		t.Fatalf("expected named function choice, got %+v", tc)
	}
}

func TestToolChoiceMarshalRoundTrip(t *testing.T) {
	tc := ToolChoice{FunctionName: "lookup"}
	data, err := tc.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	var back ToolChoice
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if back.FunctionName != "lookup" {
		t.Fatalf("expected round-tripped function name, got %+v", back)
	}
}
