package preference

import (
	"context"

	"akasha-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps preferences in process. Used when Redis is not
// configured; values do not survive a restart.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Load(ctx context.Context, userID uuid.UUID) (entity.ToolSet, error) {
	x, found := s.cache.Get(toolsKey(userID))
	if !found {
		return entity.DefaultToolSet(), nil
	}
	return decode(x.([]byte))
}

func (s *MemoryStore) Save(ctx context.Context, userID uuid.UUID, tools entity.ToolSet) error {
	data, err := encode(tools)
	if err != nil {
		return err
	}
	s.cache.Set(toolsKey(userID), data, cache.NoExpiration)
	return nil
}
