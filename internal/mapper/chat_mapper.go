package mapper

import (
	"fmt"
	"time"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat Mappers

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		Messages:  []entity.ChatMessage{},
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// Message Mappers

// MessageToEntity validates the stored jsonb document. Rows with an unknown
// type or no content are reported as entity.ErrDecode.
func (m *ChatMapper) MessageToEntity(msg *model.Message) (*entity.ChatMessage, error) {
	if msg == nil {
		return nil, nil
	}

	payload := msg.Message.Data()
	role, err := entity.ParseMessageRole(payload.Type)
	if err != nil {
		return nil, fmt.Errorf("message %d: %w: %v", msg.Id, entity.ErrDecode, err)
	}
	if payload.Content == "" {
		return nil, fmt.Errorf("message %d: %w: empty content", msg.Id, entity.ErrDecode)
	}

	return &entity.ChatMessage{
		Seq:       msg.Id,
		Role:      role,
		Content:   payload.Content,
		ChatId:    msg.SessionId,
		CreatedAt: msg.CreatedAt,
	}, nil
}

func (m *ChatMapper) MessagesToEntities(msgs []*model.Message) ([]entity.ChatMessage, error) {
	out := make([]entity.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		e, err := m.MessageToEntity(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *ChatMapper) MessageToModel(msg *entity.ChatMessage) *model.Message {
	if msg == nil {
		return nil
	}

	return &model.Message{
		Id:        msg.Seq,
		SessionId: msg.ChatId,
		Message: datatypes.NewJSONType(model.MessagePayload{
			Type:    string(msg.Role),
			Content: msg.Content,
		}),
		CreatedAt: msg.CreatedAt,
	}
}
