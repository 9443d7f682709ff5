package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleHuman MessageRole = "human"
	MessageRoleAI    MessageRole = "ai"
)

// ParseMessageRole accepts the stored lowercase form as well as the
// upper-case names older clients send.
func ParseMessageRole(s string) (MessageRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(MessageRoleHuman):
		return MessageRoleHuman, nil
	case string(MessageRoleAI):
		return MessageRoleAI, nil
	}
	return "", fmt.Errorf("unknown message role %q", s)
}

type ChatMessage struct {
	Seq       int64 // store ordering key, 0 until persisted
	Role      MessageRole
	Content   string
	ChatId    uuid.UUID
	CreatedAt time.Time
}

func NewHumanMessage(chatId uuid.UUID, content string) ChatMessage {
	return ChatMessage{Role: MessageRoleHuman, Content: content, ChatId: chatId, CreatedAt: time.Now()}
}

func NewAIMessage(chatId uuid.UUID, content string) ChatMessage {
	return ChatMessage{Role: MessageRoleAI, Content: content, ChatId: chatId, CreatedAt: time.Now()}
}
