package assistant

import (
	"context"

	"akasha-chat-be/internal/entity"
)

// Request is one user turn sent to the assistant backend.
type Request struct {
	ChatID string
	Text   string
	Tools  []entity.Tool
	// History holds the messages before Text, oldest first. Backends that
	// keep their own memory keyed by ChatID ignore it.
	History []entity.ChatMessage
}

// Endpoint produces the assistant reply for a user turn.
type Endpoint interface {
	Reply(ctx context.Context, req Request) (string, error)
}

// EndpointFunc adapts a function to Endpoint.
type EndpointFunc func(ctx context.Context, req Request) (string, error)

func (f EndpointFunc) Reply(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
