package protocol

import (
	"encoding/json"
	"fmt"
)

// ToolChoice accepts both wire layouts a chat-completion request may use:
// a bare literal ("auto"/"none") or an object selecting a named function,
// e.g. {"type":"function","function":{"name":"..."}}.
type ToolChoice struct {
	Literal      string
	FunctionName string
}

// IsAuto reports whether the choice is the bare "auto" literal (or was
// omitted, which callers should default to "auto" themselves).
func (t ToolChoice) IsAuto() bool { return t.Literal == "auto" }

// IsNone reports whether the choice is the bare "none" literal.
func (t ToolChoice) IsNone() bool { return t.Literal == "none" }

// IsNamed reports whether the choice selects a specific function.
func (t ToolChoice) IsNamed() bool { return t.FunctionName != "" }

// UnmarshalJSON accepts either a bare string literal or an object of the
// shape {"type":"function","function":{"name":"..."}}.
func (t *ToolChoice) UnmarshalJSON(data []byte) error {
	var lit string
	if err := json.Unmarshal(data, &lit); err == nil {
		t.Literal = lit
		return nil
	}

	var obj struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("tool_choice: unsupported shape: %w", err)
	}
	t.FunctionName = obj.Function.Name
	return nil
}

// MarshalJSON round-trips whichever layout was parsed.
func (t ToolChoice) MarshalJSON() ([]byte, error) {
	if t.FunctionName != "" {
		return json.Marshal(struct {
			Type     string `json:"type"`
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		}{
			Type: "function",
			Function: struct {
				Name string `json:"name"`
			}{Name: t.FunctionName},
		})
	}
	if t.Literal == "" {
		return json.Marshal("auto")
	}
	return json.Marshal(t.Literal)
}
