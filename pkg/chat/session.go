package chat

import (
	"sync"

	"akasha-chat-be/internal/entity"

	"github.com/google/uuid"
)

// Session is the live, in-memory view of one chat. All mutation goes through
// the controller; readers get copies from Snapshot.
type Session struct {
	mu      sync.Mutex
	chat    *entity.Chat
	sending bool
}

func NewSession(chat *entity.Chat) *Session {
	return &Session{chat: chat.Clone()}
}

func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.Id
}

func (s *Session) OwnerID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.UserId
}

func (s *Session) Snapshot() *entity.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.Clone()
}

func (s *Session) IsSending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.Title = title
}

// tryBegin flips the session into sending state. It reports false when a
// send is already in flight.
func (s *Session) tryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return false
	}
	s.sending = true
	return true
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
}

// append adds a message and returns the length before the append, which
// truncate uses to undo it.
func (s *Session) append(msg entity.ChatMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.chat.Messages)
	s.chat.Messages = append(s.chat.Messages, msg)
	return n
}

func (s *Session) truncate(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= 0 && n < len(s.chat.Messages) {
		s.chat.Messages = s.chat.Messages[:n]
	}
}

// history returns the first n messages.
func (s *Session) history(n int) []entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.chat.Messages) {
		n = len(s.chat.Messages)
	}
	out := make([]entity.ChatMessage, n)
	copy(out, s.chat.Messages[:n])
	return out
}
