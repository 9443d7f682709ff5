package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/pkg/assistant"
	"akasha-chat-be/pkg/utils"

	"github.com/google/uuid"
)

const controllerModule = "ChatController"

// Update kinds pushed to listeners.
const (
	UpdatePending = "chat.pending"
	UpdateUpdated = "chat.updated"
	UpdateDeleted = "chat.deleted"
)

// Store is the part of Repository the controller needs.
type Store interface {
	GetChat(ctx context.Context, ownerID, chatID uuid.UUID) (*entity.Chat, error)
	CreateChat(ctx context.Context, ownerID uuid.UUID, title string) (*entity.Chat, error)
	AppendMessages(ctx context.Context, chatID uuid.UUID, msgs ...entity.ChatMessage) error
}

// SessionCache keeps live sessions between requests. LoadOrStore returns the
// session already cached for the chat, or caches and returns the given one.
type SessionCache interface {
	Get(chatID uuid.UUID) (*Session, bool)
	LoadOrStore(session *Session) *Session
	Delete(chatID uuid.UUID)
}

// Notifier receives a snapshot every time a session changes.
type Notifier interface {
	Notify(ctx context.Context, kind string, chat *entity.Chat)
}

// SendRecorder observes finished sends.
type SendRecorder interface {
	ObserveSend(status string, latency time.Duration)
}

type ControllerConfig struct {
	// PersistMessages stores the human/AI pair after a successful reply.
	PersistMessages bool
	// ReplyTimeout bounds the assistant call.
	ReplyTimeout time.Duration
}

// Controller owns the send flow: optimistic append, assistant call, then
// confirm or roll back.
type Controller struct {
	store    Store
	endpoint assistant.Endpoint
	sessions SessionCache
	notifier Notifier
	metrics  SendRecorder
	logger   logger.ILogger
	cfg      ControllerConfig
}

func NewController(
	store Store,
	endpoint assistant.Endpoint,
	sessions SessionCache,
	notifier Notifier,
	metrics SendRecorder,
	log logger.ILogger,
	cfg ControllerConfig,
) *Controller {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = 60 * time.Second
	}
	return &Controller{
		store:    store,
		endpoint: endpoint,
		sessions: sessions,
		notifier: notifier,
		metrics:  metrics,
		logger:   log,
		cfg:      cfg,
	}
}

// Open returns the live session of a chat, loading it from the store on
// first use.
func (c *Controller) Open(ctx context.Context, ownerID, chatID uuid.UUID) (*Session, error) {
	if s, ok := c.sessions.Get(chatID); ok {
		if s.OwnerID() != ownerID {
			return nil, entity.ErrNotFound
		}
		return s, nil
	}

	chat, err := c.store.GetChat(ctx, ownerID, chatID)
	if err != nil {
		return nil, err
	}
	// A concurrent Open may have cached the chat meanwhile; both callers
	// must share one session so its sending flag guards both.
	s := c.sessions.LoadOrStore(NewSession(chat))
	if s.OwnerID() != ownerID {
		return nil, entity.ErrNotFound
	}
	return s, nil
}

// Peek returns the cached session without touching the store.
func (c *Controller) Peek(chatID uuid.UUID) (*Session, bool) {
	return c.sessions.Get(chatID)
}

// Forget drops a cached session, e.g. after the chat is deleted.
func (c *Controller) Forget(ctx context.Context, chat *entity.Chat) {
	c.sessions.Delete(chat.Id)
	c.notify(ctx, UpdateDeleted, chat)
}

// Send appends the user text, asks the assistant and reconciles the session.
// On success the chat has grown by two messages. On failure it is back to
// its previous length and a *SendError carrying the text is returned.
func (c *Controller) Send(ctx context.Context, session *Session, text string, tools entity.ToolSet) (*entity.Chat, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !session.tryBegin() {
		return nil, ErrSendInProgress
	}
	defer session.end()

	chatID := session.ID()
	human := entity.NewHumanMessage(chatID, text)
	mark := session.append(human)
	c.notify(ctx, UpdatePending, session.Snapshot())

	// The reply must be reconciled even if the caller goes away.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ReplyTimeout)
	defer cancel()

	start := time.Now()
	reply, err := c.endpoint.Reply(callCtx, assistant.Request{
		ChatID:  chatID.String(),
		Text:    text,
		Tools:   tools.List(),
		History: session.history(mark),
	})
	latency := time.Since(start)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("%w: empty assistant reply", entity.ErrDecode)
	}

	if err != nil {
		session.truncate(mark)
		c.observe("failed", latency)
		c.logger.Warn(controllerModule, "Assistant call failed, message rolled back", map[string]interface{}{
			"chat_id": chatID,
			"error":   err.Error(),
		})
		snapshot := session.Snapshot()
		c.notify(ctx, UpdateUpdated, snapshot)
		return snapshot, &SendError{Draft: text, Err: err}
	}

	ai := entity.NewAIMessage(chatID, reply)
	session.append(ai)
	c.observe("ok", latency)

	if c.cfg.PersistMessages {
		if err := c.store.AppendMessages(callCtx, chatID, human, ai); err != nil {
			c.logger.Error(controllerModule, "Failed to persist messages", map[string]interface{}{
				"chat_id": chatID,
				"error":   err.Error(),
			})
		}
	}

	snapshot := session.Snapshot()
	c.notify(ctx, UpdateUpdated, snapshot)
	return snapshot, nil
}

// StartChat creates a chat titled after the prompt and sends the prompt as
// its first message. Nothing is sent when the chat cannot be created.
func (c *Controller) StartChat(ctx context.Context, ownerID uuid.UUID, prompt string, tools entity.ToolSet) (*entity.Chat, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := c.store.CreateChat(ctx, ownerID, utils.TitleFromPrompt(prompt))
	if err != nil {
		return nil, err
	}

	session := c.sessions.LoadOrStore(NewSession(chat))

	return c.Send(ctx, session, prompt, tools)
}

func (c *Controller) notify(ctx context.Context, kind string, chat *entity.Chat) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(context.WithoutCancel(ctx), kind, chat)
}

func (c *Controller) observe(status string, latency time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveSend(status, latency)
}
