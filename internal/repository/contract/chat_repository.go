package contract

import (
	"context"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	Update(ctx context.Context, chat *entity.Chat) error
	// Delete reports whether a row matching the specs was removed.
	Delete(ctx context.Context, id uuid.UUID, specs ...specification.Specification) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
