package gateway

import "github.com/agentrelay/agentrelay/pkg/jsonutil"

// detectToolCall implements the tool-name detection order from spec §4.I
// step 4: an explicit function/action/tool/name key in the parsed JSON,
// else a schema structural match, else the first declared tool. Returns
// nil if text doesn't parse as a JSON object or no tools were declared.
//
// strict restricts the structural match to an exact required-properties
// match and disables the half-properties-present fallback and the
// fallback-to-first-tool guess; only the explicit-key and exact-match
// paths fire. GatewayOptions.EnableToolCallDetection toggles this: off by
// default (strict), opt-in for the looser heuristic.
func detectToolCall(text string, tools []Tool, strict bool) *ToolCallChunk {
	if len(tools) == 0 {
		return nil
	}
	var parsed map[string]any
	if err := jsonutil.UnmarshalString(text, &parsed); err != nil {
		return nil
	}

	for _, key := range []string{"function", "action", "tool", "name"} {
		if v, ok := parsed[key]; ok {
			if name, ok := v.(string); ok && name != "" {
				return &ToolCallChunk{
					Type:     "function",
					Function: ToolCallFunction{Name: name, Arguments: text},
				}
			}
		}
	}

	if name, ok := structuralMatch(parsed, tools, strict); ok {
		return &ToolCallChunk{Type: "function", Function: ToolCallFunction{Name: name, Arguments: text}}
	}

	if strict {
		return nil
	}

	return &ToolCallChunk{
		Type:     "function",
		Function: ToolCallFunction{Name: tools[0].Function.Name, Arguments: text},
	}
}

func structuralMatch(parsed map[string]any, tools []Tool, strict bool) (string, bool) {
	bestName := ""
	bestScore := -1.0

	for _, t := range tools {
		props, _ := t.Function.Parameters["properties"].(map[string]any)
		required, _ := toStringSlice(t.Function.Parameters["required"])

		if len(required) > 0 && allPresent(parsed, required) {
			return t.Function.Name, true
		}

		if strict || len(props) == 0 {
			continue
		}
		present := 0
		for k := range props {
			if _, ok := parsed[k]; ok {
				present++
			}
		}
		score := float64(present) / float64(len(props))
		if score >= 0.5 && score > bestScore {
			bestScore, bestName = score, t.Function.Name
		}
	}

	if bestName != "" {
		return bestName, true
	}
	return "", false
}

func allPresent(parsed map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := parsed[k]; !ok {
			return false
		}
	}
	return true
}

func toStringSlice(v any) ([]string, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
