package service

import (
	"context"
	"errors"
	"strings"

	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/pkg/chat"
	"akasha-chat-be/pkg/events"
	"akasha-chat-be/pkg/markdown"
	"akasha-chat-be/pkg/preference"
	"akasha-chat-be/pkg/utils"

	"github.com/google/uuid"
)

const (
	chatModule = "ChatService"

	previewLength = 80
	FormatHTML    = "html"
)

// ChatStore is the stored side of chats (implemented by chat.Repository).
type ChatStore interface {
	ListChats(ctx context.Context, ownerID uuid.UUID) ([]*entity.Chat, error)
	RenameChat(ctx context.Context, ownerID, chatID uuid.UUID, title string) (*entity.Chat, error)
	DeleteChat(ctx context.Context, ownerID, chatID uuid.UUID) (bool, error)
}

// EventPublisher is satisfied by *nats.Publisher; a nil publisher drops events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatService interface {
	ListChats(ctx context.Context, userId uuid.UUID, format string) ([]*dto.ChatResponse, error)
	StartChat(ctx context.Context, userId uuid.UUID, req *dto.StartChatRequest) (*dto.ChatResponse, error)
	GetChat(ctx context.Context, userId, chatId uuid.UUID, format string) (*dto.ChatResponse, error)
	RenameChat(ctx context.Context, userId, chatId uuid.UUID, req *dto.RenameChatRequest) (*dto.ChatResponse, error)
	DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error
	SendMessage(ctx context.Context, userId, chatId uuid.UUID, req *dto.SendMessageRequest) (*dto.ChatResponse, error)
}

type chatService struct {
	store      ChatStore
	controller *chat.Controller
	prefs      preference.Store
	notifier   chat.Notifier
	renderer   *markdown.Renderer
	publisher  EventPublisher
	logger     logger.ILogger
}

func NewChatService(
	store ChatStore,
	controller *chat.Controller,
	prefs preference.Store,
	notifier chat.Notifier,
	renderer *markdown.Renderer,
	publisher EventPublisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		store:      store,
		controller: controller,
		prefs:      prefs,
		notifier:   notifier,
		renderer:   renderer,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *chatService) ListChats(ctx context.Context, userId uuid.UUID, format string) ([]*dto.ChatResponse, error) {
	chats, err := s.store.ListChats(ctx, userId)
	if err != nil {
		s.logger.Error(chatModule, "Failed to list chats", map[string]interface{}{
			"user_id": userId,
			"error":   err,
		})
		return nil, err
	}

	res := make([]*dto.ChatResponse, 0, len(chats))
	for _, c := range chats {
		// A live session may hold messages the store has not seen yet.
		sending := false
		if live, ok := s.controller.Peek(c.Id); ok && live.OwnerID() == userId {
			c = live.Snapshot()
			sending = live.IsSending()
		}
		res = append(res, s.toResponse(c, sending, format))
	}
	return res, nil
}

func (s *chatService) StartChat(ctx context.Context, userId uuid.UUID, req *dto.StartChatRequest) (*dto.ChatResponse, error) {
	tools := s.loadTools(ctx, userId)

	c, err := s.controller.StartChat(ctx, userId, req.Prompt, tools)
	if c != nil {
		s.publish(ctx, events.ChatCreated, map[string]interface{}{
			"user_id": userId.String(),
			"chat_id": c.Id.String(),
			"title":   c.Title,
		})
	}
	if c == nil {
		return nil, err
	}
	return s.toResponse(c, false, ""), err
}

func (s *chatService) GetChat(ctx context.Context, userId, chatId uuid.UUID, format string) (*dto.ChatResponse, error) {
	session, err := s.controller.Open(ctx, userId, chatId)
	if err != nil {
		return nil, err
	}
	return s.toResponse(session.Snapshot(), session.IsSending(), format), nil
}

func (s *chatService) RenameChat(ctx context.Context, userId, chatId uuid.UUID, req *dto.RenameChatRequest) (*dto.ChatResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = utils.DefaultChatTitle
	}

	stored, err := s.store.RenameChat(ctx, userId, chatId, title)
	if err != nil {
		return nil, err
	}

	c, sending := stored, false
	if live, ok := s.controller.Peek(chatId); ok && live.OwnerID() == userId {
		live.SetTitle(title)
		c, sending = live.Snapshot(), live.IsSending()
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, chat.UpdateUpdated, c)
	}
	s.publish(ctx, events.ChatRenamed, map[string]interface{}{
		"user_id": userId.String(),
		"chat_id": chatId.String(),
		"title":   title,
	})
	return s.toResponse(c, sending, ""), nil
}

func (s *chatService) DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error {
	removed, err := s.store.DeleteChat(ctx, userId, chatId)
	if err != nil {
		return err
	}
	if !removed {
		return entity.ErrNotFound
	}

	s.controller.Forget(ctx, &entity.Chat{Id: chatId, UserId: userId})
	s.publish(ctx, events.ChatDeleted, map[string]interface{}{
		"user_id": userId.String(),
		"chat_id": chatId.String(),
	})
	return nil
}

// SendMessage returns the chat as it stands after the send. When the
// assistant fails the chat is returned together with a *chat.SendError.
func (s *chatService) SendMessage(ctx context.Context, userId, chatId uuid.UUID, req *dto.SendMessageRequest) (*dto.ChatResponse, error) {
	session, err := s.controller.Open(ctx, userId, chatId)
	if err != nil {
		return nil, err
	}

	c, err := s.controller.Send(ctx, session, req.Text, s.loadTools(ctx, userId))
	if c == nil {
		return nil, err
	}
	return s.toResponse(c, false, ""), err
}

func (s *chatService) loadTools(ctx context.Context, userId uuid.UUID) entity.ToolSet {
	tools, err := s.prefs.Load(ctx, userId)
	if err != nil {
		s.logger.Warn(chatModule, "Failed to load tool preferences, using defaults", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return entity.DefaultToolSet()
	}
	return tools
}

func (s *chatService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn(chatModule, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func (s *chatService) toResponse(c *entity.Chat, sending bool, format string) *dto.ChatResponse {
	res := ChatToResponse(c, sending)
	if format != FormatHTML || s.renderer == nil {
		return res
	}
	for i := range res.Messages {
		if res.Messages[i].Role != string(entity.MessageRoleAI) {
			continue
		}
		html, err := s.renderer.ToHTML(res.Messages[i].Content)
		if err != nil {
			s.logger.Warn(chatModule, "Failed to render markdown", map[string]interface{}{"error": err.Error()})
			continue
		}
		res.Messages[i].HTML = html
	}
	return res
}

// ChatToResponse maps a chat to its wire form.
func ChatToResponse(c *entity.Chat, sending bool) *dto.ChatResponse {
	msgs := make([]dto.MessageResponse, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, dto.MessageResponse{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	preview := utils.EmptyChatPreview
	if last := c.LastMessage(); last != "" {
		preview = utils.Ellipsize(last, previewLength)
	}

	return &dto.ChatResponse{
		Id:        c.Id,
		Title:     utils.DisplayTitle(c.Title),
		Preview:   preview,
		Sending:   sending,
		Messages:  msgs,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// IsSendFailure reports whether err is a failed assistant round trip and
// returns the text to restore.
func IsSendFailure(err error) (string, bool) {
	var sendErr *chat.SendError
	if errors.As(err, &sendErr) {
		return sendErr.Draft, true
	}
	return "", false
}
