package memory

import (
	"sync"
	"testing"
	"time"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/pkg/chat"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	id := uuid.New()
	s := chat.NewSession(&entity.Chat{Id: id, UserId: uuid.New(), Title: "t"})

	_, ok := repo.Get(id)
	assert.False(t, ok)

	assert.Same(t, s, repo.LoadOrStore(s))
	got, ok := repo.Get(id)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, repo.Count())

	// A second session for the same chat loses to the cached one.
	other := chat.NewSession(&entity.Chat{Id: id, UserId: s.OwnerID(), Title: "t"})
	assert.Same(t, s, repo.LoadOrStore(other))

	repo.Delete(id)
	_, ok = repo.Get(id)
	assert.False(t, ok)
}

func TestSessionRepository_LoadOrStoreConcurrent(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	id := uuid.New()

	const callers = 16
	results := make([]*chat.Session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.LoadOrStore(chat.NewSession(&entity.Chat{Id: id}))
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepository_Expires(t *testing.T) {
	repo := NewSessionRepository(20 * time.Millisecond)
	id := uuid.New()
	repo.LoadOrStore(chat.NewSession(&entity.Chat{Id: id}))

	time.Sleep(40 * time.Millisecond)
	_, ok := repo.Get(id)
	assert.False(t, ok)
}
