package service

import (
	"context"
	"encoding/json"

	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// UpdateDelivery pushes a frame to every connection of a user. Implemented
// by the websocket hub.
type UpdateDelivery interface {
	Push(userID uuid.UUID, kind string, data interface{})
}

// ChatUpdateMessage is the payload carried on the in-process update topic.
type ChatUpdateMessage struct {
	Kind    string            `json:"kind"`
	OwnerId uuid.UUID         `json:"owner_id"`
	Chat    *dto.ChatResponse `json:"chat"`
}

// ChatUpdatePublisher implements chat.Notifier on top of a watermill
// publisher so the send path never blocks on websocket writes.
type ChatUpdatePublisher struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
}

func NewChatUpdatePublisher(publisher message.Publisher, topic string, log logger.ILogger) *ChatUpdatePublisher {
	return &ChatUpdatePublisher{publisher: publisher, topic: topic, logger: log}
}

func (p *ChatUpdatePublisher) Notify(ctx context.Context, kind string, c *entity.Chat) {
	payload, err := json.Marshal(ChatUpdateMessage{
		Kind:    kind,
		OwnerId: c.UserId,
		Chat:    ChatToResponse(c, false),
	})
	if err != nil {
		p.logger.Error("ChatUpdatePublisher", "Failed to encode update", map[string]interface{}{"error": err})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Warn("ChatUpdatePublisher", "Failed to publish update", map[string]interface{}{
			"chat_id": c.Id,
			"error":   err.Error(),
		})
	}
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService forwards chat updates from the topic to the owner's
// websocket connections.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   UpdateDelivery
	logger     logger.ILogger
}

func NewConsumerService(subscriber message.Subscriber, topicName string, delivery UpdateDelivery, log logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		logger:     log,
	}
}

// Consume subscribes and processes messages in the background until ctx
// is cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload ChatUpdateMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal update", map[string]interface{}{"error": err})
		// Ack invalid messages to prevent infinite redelivery
		msg.Ack()
		return
	}

	cs.delivery.Push(payload.OwnerId, payload.Kind, payload.Chat)
	msg.Ack()
}
