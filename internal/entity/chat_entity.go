package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Messages  []ChatMessage
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Clone returns a copy whose message slice can be appended to without
// touching the receiver.
func (c *Chat) Clone() *Chat {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Messages = make([]ChatMessage, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return &cp
}

// LastMessage returns the newest message content, or "" for an empty chat.
func (c *Chat) LastMessage() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Content
}
