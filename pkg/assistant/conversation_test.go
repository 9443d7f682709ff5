package assistant

import (
	"testing"

	"akasha-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation(t *testing.T) {
	chatID := uuid.New()
	turns := Conversation(Request{
		ChatID: chatID.String(),
		Text:   "and 3+3?",
		Tools:  []entity.Tool{entity.ToolCalculator},
		History: []entity.ChatMessage{
			entity.NewHumanMessage(chatID, "2+2?"),
			entity.NewAIMessage(chatID, "4"),
		},
	})

	require.Len(t, turns, 4)
	assert.Equal(t, "system", turns[0].Role)
	assert.Contains(t, turns[0].Content, "calculator")
	assert.Equal(t, Turn{Role: "user", Content: "2+2?"}, turns[1])
	assert.Equal(t, Turn{Role: "assistant", Content: "4"}, turns[2])
	assert.Equal(t, Turn{Role: "user", Content: "and 3+3?"}, turns[3])
}

func TestConversation_NoTools(t *testing.T) {
	turns := Conversation(Request{Text: "hi"})

	require.Len(t, turns, 2)
	assert.Equal(t, basePrompt, turns[0].Content)
}
