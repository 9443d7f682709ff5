package preference

import (
	"context"
	"errors"
	"fmt"

	"akasha-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, userID uuid.UUID) (entity.ToolSet, error) {
	data, err := s.rdb.Get(ctx, toolsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.DefaultToolSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tool preferences: %w", err)
	}
	set, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: tool preferences: %v", entity.ErrDecode, err)
	}
	return set, nil
}

func (s *RedisStore) Save(ctx context.Context, userID uuid.UUID, tools entity.ToolSet) error {
	data, err := encode(tools)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, toolsKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("save tool preferences: %w", err)
	}
	return nil
}
