package service

import (
	"context"
	"strings"
	"sync"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/repository/contract"
	"akasha-chat-be/internal/repository/specification"
	"akasha-chat-be/internal/repository/unitofwork"
	"akasha-chat-be/pkg/events"

	"github.com/google/uuid"
)

type memUsers struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*entity.User
	refresh   map[string]*entity.UserRefreshToken
	providers []*entity.UserProvider
	createErr error
}

func newMemUsers() *memUsers {
	return &memUsers{
		byID:    map[uuid.UUID]*entity.User{},
		refresh: map[string]*entity.UserRefreshToken{},
	}
}

func (r *memUsers) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *user
	r.byID[user.Id] = &cp
	return nil
}

func (r *memUsers) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *memUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if matchesUser(u, specs) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func matchesUser(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if !strings.EqualFold(u.Email, strings.TrimSpace(s.Email)) {
				return false
			}
		}
	}
	return true
}

func (r *memUsers) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *memUsers) UpdateProfile(ctx context.Context, userId uuid.UUID, name *string, avatarURL *string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userId]
	if !ok {
		return nil, entity.ErrNotFound
	}
	if name != nil {
		u.Name = name
	}
	if avatarURL != nil {
		u.AvatarURL = avatarURL
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.refresh[token.TokenHash] = &cp
	return nil
}

func (r *memUsers) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.refresh[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (r *memUsers) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, provider)
	return nil
}

type memUoW struct {
	users *memUsers
}

func (u *memUoW) Begin(ctx context.Context) error               { return nil }
func (u *memUoW) Commit() error                                 { return nil }
func (u *memUoW) Rollback() error                               { return nil }
func (u *memUoW) UserRepository() contract.UserRepository       { return u.users }
func (u *memUoW) ChatRepository() contract.ChatRepository       { return nil }
func (u *memUoW) MessageRepository() contract.MessageRepository { return nil }

type memFactory struct {
	users *memUsers
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUoW{users: f.users}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type push struct {
	userID uuid.UUID
	kind   string
	data   interface{}
}

type recordingDelivery struct {
	mu     sync.Mutex
	pushes []push
}

func (d *recordingDelivery) Push(userID uuid.UUID, kind string, data interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushes = append(d.pushes, push{userID: userID, kind: kind, data: data})
}

func (d *recordingDelivery) all() []push {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]push(nil), d.pushes...)
}
