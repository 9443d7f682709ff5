package assistant

import (
	"fmt"
	"strings"

	"akasha-chat-be/internal/entity"
)

// Turn is a role-tagged message in the shape chat-completion APIs expect.
type Turn struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

const basePrompt = "You are Akasha, a concise and friendly assistant."

// Conversation flattens a request into system prompt, history and the new
// user turn. Enabled tools are advertised in the system prompt because
// plain completion backends have no tool wiring of their own.
func Conversation(req Request) []Turn {
	system := basePrompt
	if len(req.Tools) > 0 {
		names := make([]string, len(req.Tools))
		for i, t := range req.Tools {
			names[i] = toolLabel(t)
		}
		system += fmt.Sprintf(" The user has enabled: %s.", strings.Join(names, ", "))
	}

	turns := make([]Turn, 0, len(req.History)+2)
	turns = append(turns, Turn{Role: "system", Content: system})
	for _, m := range req.History {
		role := "user"
		if m.Role == entity.MessageRoleAI {
			role = "assistant"
		}
		turns = append(turns, Turn{Role: role, Content: m.Content})
	}
	return append(turns, Turn{Role: "user", Content: req.Text})
}

func toolLabel(t entity.Tool) string {
	switch t {
	case entity.ToolWebSearch:
		return "web search"
	case entity.ToolCalculator:
		return "calculator"
	}
	return strings.ToLower(string(t))
}
