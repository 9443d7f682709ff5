package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/mapper"
	"akasha-chat-be/internal/model"
	"akasha-chat-be/internal/repository/contract"
	"akasha-chat-be/internal/repository/specification"
	"akasha-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memStore is a map-backed stand-in for the three tables. It understands the
// specifications the chat package uses.
type memStore struct {
	mu       sync.Mutex
	chats    map[uuid.UUID]entity.Chat
	messages []*model.Message
	users    map[uuid.UUID]entity.User
	seq      int64
	clock    time.Time

	failChats    error
	failMessages error
	failCommit   error
}

func newMemStore() *memStore {
	return &memStore{
		chats: map[uuid.UUID]entity.Chat{},
		users: map[uuid.UUID]entity.User{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memFactory struct{ store *memStore }

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUoW{store: f.store}
}

type memUoW struct {
	store *memStore
	inTx  bool
}

func (u *memUoW) Begin(ctx context.Context) error {
	if u.inTx {
		return errors.New("transaction already started")
	}
	u.inTx = true
	return nil
}

func (u *memUoW) Commit() error {
	if !u.inTx {
		return errors.New("no transaction to commit")
	}
	u.inTx = false
	return u.store.failCommit
}

func (u *memUoW) Rollback() error {
	if !u.inTx {
		return errors.New("no transaction to rollback")
	}
	u.inTx = false
	return nil
}

func (u *memUoW) UserRepository() contract.UserRepository       { return &memUsers{u.store} }
func (u *memUoW) ChatRepository() contract.ChatRepository       { return &memChats{u.store} }
func (u *memUoW) MessageRepository() contract.MessageRepository { return &memMessages{u.store} }

type chatFilter struct {
	id     *uuid.UUID
	owner  *uuid.UUID
	desc   bool
	ids    map[uuid.UUID]bool
	byChat *uuid.UUID
}

func parseSpecs(specs []specification.Specification) chatFilter {
	var f chatFilter
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByID:
			id := v.ID
			f.id = &id
		case specification.UserOwnedBy:
			o := v.UserID
			f.owner = &o
		case specification.OrderBy:
			f.desc = v.Desc
		case specification.BySessionID:
			id := v.SessionID
			f.byChat = &id
		case specification.BySessionIDs:
			f.ids = map[uuid.UUID]bool{}
			for _, id := range v.SessionIDs {
				f.ids[id] = true
			}
		}
	}
	return f
}

func (f chatFilter) matchChat(c entity.Chat) bool {
	if f.id != nil && c.Id != *f.id {
		return false
	}
	if f.owner != nil && c.UserId != *f.owner {
		return false
	}
	return true
}

type memChats struct{ s *memStore }

func (r *memChats) Create(ctx context.Context, chat *entity.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failChats != nil {
		return r.s.failChats
	}
	chat.Id = uuid.New()
	chat.CreatedAt = r.s.tick()
	stored := *chat
	stored.Messages = nil
	r.s.chats[chat.Id] = stored
	return nil
}

func (r *memChats) Update(ctx context.Context, chat *entity.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failChats != nil {
		return r.s.failChats
	}
	stored, ok := r.s.chats[chat.Id]
	if !ok {
		return nil
	}
	stored.Title = chat.Title
	r.s.chats[chat.Id] = stored
	return nil
}

func (r *memChats) Delete(ctx context.Context, id uuid.UUID, specs ...specification.Specification) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failChats != nil {
		return false, r.s.failChats
	}
	f := parseSpecs(specs)
	c, ok := r.s.chats[id]
	if !ok || !f.matchChat(c) {
		return false, nil
	}
	delete(r.s.chats, id)
	return true, nil
}

func (r *memChats) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *memChats) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failChats != nil {
		return nil, r.s.failChats
	}
	f := parseSpecs(specs)
	out := []*entity.Chat{}
	for _, c := range r.s.chats {
		if f.matchChat(c) {
			cp := c
			cp.Messages = []entity.ChatMessage{}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if f.desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memChats) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

var messageMapper = mapper.NewChatMapper()

type memMessages struct{ s *memStore }

func (r *memMessages) Create(ctx context.Context, message *entity.ChatMessage) error {
	return r.CreateBulk(ctx, []*entity.ChatMessage{message})
}

func (r *memMessages) CreateBulk(ctx context.Context, messages []*entity.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failMessages != nil {
		return r.s.failMessages
	}
	for _, m := range messages {
		r.s.seq++
		m.Seq = r.s.seq
		r.s.messages = append(r.s.messages, messageMapper.MessageToModel(m))
	}
	return nil
}

func (r *memMessages) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.SessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

func (r *memMessages) FindAll(ctx context.Context, specs ...specification.Specification) ([]entity.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failMessages != nil {
		return nil, r.s.failMessages
	}
	f := parseSpecs(specs)
	rows := []*model.Message{}
	for _, m := range r.s.messages {
		if f.byChat != nil && m.SessionId != *f.byChat {
			continue
		}
		if f.ids != nil && !f.ids[m.SessionId] {
			continue
		}
		rows = append(rows, m)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Id < rows[j].Id })
	// Decode through the real mapper so stored rows are validated the same
	// way the database repository validates them.
	return messageMapper.MessagesToEntities(rows)
}

func (r *memMessages) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type memUsers struct{ s *memStore }

func (r *memUsers) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	r.s.users[user.Id] = *user
	return nil
}

func (r *memUsers) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *memUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := parseSpecs(specs)
	for _, u := range r.s.users {
		if f.id == nil || u.Id == *f.id {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.s.users)), nil
}

func (r *memUsers) UpdateProfile(ctx context.Context, userId uuid.UUID, name *string, avatarURL *string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userId]
	if !ok {
		return nil, entity.ErrNotFound
	}
	if name != nil {
		u.Name = name
	}
	if avatarURL != nil {
		u.AvatarURL = avatarURL
	}
	r.s.users[userId] = u
	cp := u
	return &cp, nil
}

func (r *memUsers) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	return nil
}

func (r *memUsers) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return nil
}

func (r *memUsers) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	return nil
}

type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string][]byte{}}
}

func (b *memBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.objects[key] = data
	return nil
}

func (b *memBucket) PublicURL(key string) string {
	return "https://cdn.test/avatars/" + key
}

type mapSessions struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Session
}

func newMapSessions() *mapSessions {
	return &mapSessions{items: map[uuid.UUID]*Session{}}
}

func (m *mapSessions) Get(chatID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[chatID]
	return s, ok
}

func (m *mapSessions) LoadOrStore(session *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.items[session.ID()]; ok {
		return s
	}
	m.items[session.ID()] = session
	return session
}

func (m *mapSessions) Delete(chatID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, chatID)
}

type recordedUpdate struct {
	kind     string
	messages int
}

type recordingNotifier struct {
	mu      sync.Mutex
	updates []recordedUpdate
}

func (n *recordingNotifier) Notify(ctx context.Context, kind string, chat *entity.Chat) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, recordedUpdate{kind: kind, messages: len(chat.Messages)})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.updates))
	for i, u := range n.updates {
		out[i] = u.kind
	}
	return out
}

type recordingMetrics struct {
	mu       sync.Mutex
	statuses []string
}

func (m *recordingMetrics) ObserveSend(status string, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}
