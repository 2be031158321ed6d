package gateway

import "github.com/agentrelay/agentrelay/internal/conversation"

func toConversationMessage(m ChatMessage) conversation.Message {
	cm := conversation.Message{Role: m.Role}
	if m.Content != "" {
		cm.TextParts = []string{m.Content}
	}
	if len(m.ImageURLs) > 0 {
		cm.HasImage = true
		cm.ImageCount = len(m.ImageURLs)
	}
	return cm
}

func toConversationMessages(msgs []ChatMessage) []conversation.Message {
	out := make([]conversation.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toConversationMessage(m))
	}
	return out
}

// serializePrompt flattens the trimmed context into the single prompt
// string sent as the agent's one user turn: every message in the order
// given (the chronological order DeriveContext returns), each tagged
// with its role. System messages are not moved to the front.
func serializePrompt(ctx []conversation.Message) string {
	var out string
	for _, m := range ctx {
		text := ""
		for i, t := range m.TextParts {
			if i > 0 {
				text += "\n"
			}
			text += t
		}
		out += m.Role + ": " + text + "\n\n"
	}
	return out
}
