package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/repository/specification"
	"akasha-chat-be/internal/repository/unitofwork"
	"akasha-chat-be/pkg/utils"

	"github.com/google/uuid"
)

const module = "ChatRepository"

// ObjectStorage is the bucket avatars are written to.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Repository is the persistence gateway for chats, messages and profiles.
// Every failure is surfaced to the caller wrapped in entity.ErrStore,
// entity.ErrDecode or entity.ErrNotFound.
type Repository struct {
	uowFactory unitofwork.RepositoryFactory
	storage    ObjectStorage
	logger     logger.ILogger
}

func NewRepository(uowFactory unitofwork.RepositoryFactory, storage ObjectStorage, log logger.ILogger) *Repository {
	return &Repository{
		uowFactory: uowFactory,
		storage:    storage,
		logger:     log,
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, entity.ErrStore, err)
}

// ListChats returns every chat of the owner, newest first, each hydrated with
// its messages in insertion order.
func (r *Repository) ListChats(ctx context.Context, ownerID uuid.UUID) ([]*entity.Chat, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: ownerID},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		r.logger.Error(module, "Failed to list chats", map[string]interface{}{"user_id": ownerID, "error": err.Error()})
		return nil, storeErr("list chats", err)
	}
	if len(chats) == 0 {
		return []*entity.Chat{}, nil
	}

	ids := make([]uuid.UUID, len(chats))
	byID := make(map[uuid.UUID]*entity.Chat, len(chats))
	for i, c := range chats {
		ids[i] = c.Id
		byID[c.Id] = c
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionIDs{SessionIDs: ids},
		specification.InsertionOrder{},
	)
	if err != nil {
		r.logger.Error(module, "Failed to load messages", map[string]interface{}{"user_id": ownerID, "error": err.Error()})
		return nil, r.readErr("load messages", err)
	}
	for _, m := range messages {
		if c, ok := byID[m.ChatId]; ok {
			c.Messages = append(c.Messages, m)
		}
	}

	return chats, nil
}

// GetChat loads one hydrated chat. Chats of other owners are reported as
// not found.
func (r *Repository) GetChat(ctx context.Context, ownerID, chatID uuid.UUID) (*entity.Chat, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatID},
		specification.UserOwnedBy{UserID: ownerID},
	)
	if err != nil {
		return nil, storeErr("get chat", err)
	}
	if chat == nil {
		return nil, entity.ErrNotFound
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: chatID},
		specification.InsertionOrder{},
	)
	if err != nil {
		r.logger.Error(module, "Failed to load messages", map[string]interface{}{"chat_id": chatID, "error": err.Error()})
		return nil, r.readErr("load messages", err)
	}
	chat.Messages = messages
	return chat, nil
}

// CreateChat inserts an empty chat and returns it with the store-assigned id.
func (r *Repository) CreateChat(ctx context.Context, ownerID uuid.UUID, title string) (*entity.Chat, error) {
	if strings.TrimSpace(title) == "" {
		title = utils.DefaultChatTitle
	}

	chat := &entity.Chat{UserId: ownerID, Title: title}
	if err := r.uowFactory.NewUnitOfWork(ctx).ChatRepository().Create(ctx, chat); err != nil {
		r.logger.Error(module, "Failed to create chat", map[string]interface{}{"user_id": ownerID, "error": err.Error()})
		return nil, storeErr("create chat", err)
	}
	chat.Messages = []entity.ChatMessage{}
	return chat, nil
}

func (r *Repository) RenameChat(ctx context.Context, ownerID, chatID uuid.UUID, title string) (*entity.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = utils.DefaultChatTitle
	}

	repo := r.uowFactory.NewUnitOfWork(ctx).ChatRepository()
	chat, err := repo.FindOne(ctx, specification.ByID{ID: chatID}, specification.UserOwnedBy{UserID: ownerID})
	if err != nil {
		return nil, storeErr("rename chat", err)
	}
	if chat == nil {
		return nil, entity.ErrNotFound
	}

	chat.Title = title
	if err := repo.Update(ctx, chat); err != nil {
		return nil, storeErr("rename chat", err)
	}
	return chat, nil
}

// DeleteChat removes the chat and its messages in one transaction. It
// reports false when no chat with that id belongs to the owner.
func (r *Repository) DeleteChat(ctx context.Context, ownerID, chatID uuid.UUID) (bool, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, storeErr("delete chat", err)
	}
	defer uow.Rollback()

	existing, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatID}, specification.UserOwnedBy{UserID: ownerID})
	if err != nil {
		return false, storeErr("delete chat", err)
	}
	if existing == nil {
		return false, nil
	}

	if err := uow.MessageRepository().DeleteBySessionId(ctx, chatID); err != nil {
		return false, storeErr("delete messages", err)
	}
	deleted, err := uow.ChatRepository().Delete(ctx, chatID, specification.UserOwnedBy{UserID: ownerID})
	if err != nil {
		return false, storeErr("delete chat", err)
	}
	if err := uow.Commit(); err != nil {
		return false, storeErr("delete chat", err)
	}

	r.logger.Info(module, "Chat deleted", map[string]interface{}{"chat_id": chatID, "user_id": ownerID})
	return deleted, nil
}

// AppendMessages persists confirmed messages in order.
func (r *Repository) AppendMessages(ctx context.Context, chatID uuid.UUID, msgs ...entity.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	rows := make([]*entity.ChatMessage, len(msgs))
	for i := range msgs {
		m := msgs[i]
		m.ChatId = chatID
		rows[i] = &m
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return storeErr("append messages", err)
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().CreateBulk(ctx, rows); err != nil {
		return storeErr("append messages", err)
	}
	if err := uow.Commit(); err != nil {
		return storeErr("append messages", err)
	}
	return nil
}

// UpdateProfile stores a new display name and, when given, uploads a new
// avatar. An avatar that fails to upload is logged and the previous URL is
// kept so the name change still goes through.
func (r *Repository) UpdateProfile(ctx context.Context, profile *entity.User, newName *string, avatar *entity.ImageData) (*entity.User, error) {
	var avatarURL *string
	if avatar != nil && len(avatar.Bytes) > 0 {
		url, err := r.uploadAvatar(ctx, profile.Id, avatar)
		if err != nil {
			r.logger.Warn(module, "Avatar upload failed, keeping previous avatar", map[string]interface{}{
				"user_id": profile.Id,
				"error":   err.Error(),
			})
		} else {
			avatarURL = &url
		}
	}

	updated, err := r.uowFactory.NewUnitOfWork(ctx).UserRepository().UpdateProfile(ctx, profile.Id, newName, avatarURL)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, err
		}
		r.logger.Error(module, "Failed to update profile", map[string]interface{}{"user_id": profile.Id, "error": err.Error()})
		return nil, storeErr("update profile", err)
	}
	return updated, nil
}

func (r *Repository) uploadAvatar(ctx context.Context, userID uuid.UUID, img *entity.ImageData) (string, error) {
	if r.storage == nil {
		return "", fmt.Errorf("object storage not configured")
	}
	key := AvatarKey(userID, img.MimeType)
	if err := r.storage.Put(ctx, key, img.Bytes, contentType(img.MimeType)); err != nil {
		return "", err
	}
	return r.storage.PublicURL(key), nil
}

// readErr keeps decode failures distinguishable from store failures.
func (r *Repository) readErr(op string, err error) error {
	if errors.Is(err, entity.ErrDecode) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return storeErr(op, err)
}
