package dto

import (
	"time"

	"github.com/google/uuid"
)

type MessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatResponse struct {
	Id        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Preview   string            `json:"preview"`
	Sending   bool              `json:"sending"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
}

type StartChatRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type RenameChatRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

// SendFailedResponse returns the text the user typed so the client can put
// it back into the input.
type SendFailedResponse struct {
	Draft string        `json:"draft"`
	Chat  *ChatResponse `json:"chat"`
}

type ChatListQuery struct {
	Format string `query:"format" validate:"omitempty,oneof=text html"`
}
