package memory

import (
	"time"

	"akasha-chat-be/pkg/chat"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps live chat sessions so that the sending flag and
// optimistic messages survive between requests.
type SessionRepository struct {
	cache *cache.Cache
}

var _ chat.SessionCache = &SessionRepository{}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// LoadOrStore caches session unless the chat already has a live one, in
// which case the cached session wins.
func (r *SessionRepository) LoadOrStore(session *chat.Session) *chat.Session {
	key := session.ID().String()
	for {
		if err := r.cache.Add(key, session, cache.DefaultExpiration); err == nil {
			return session
		}
		// Add fails only while a live entry exists; it may expire or be
		// deleted before the Get, so retry.
		if x, found := r.cache.Get(key); found {
			return x.(*chat.Session)
		}
	}
}

// Get refreshes the expiry on every hit so active chats stay resident.
func (r *SessionRepository) Get(chatID uuid.UUID) (*chat.Session, bool) {
	key := chatID.String()
	x, found := r.cache.Get(key)
	if !found {
		return nil, false
	}
	s := x.(*chat.Session)
	// Replace never resurrects an entry deleted since the Get.
	_ = r.cache.Replace(key, s, cache.DefaultExpiration)
	return s, true
}

func (r *SessionRepository) Delete(chatID uuid.UUID) {
	r.cache.Delete(chatID.String())
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
