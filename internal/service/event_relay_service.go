package service

import (
	"context"

	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/pkg/events"
	pktNats "akasha-chat-be/pkg/nats"

	"github.com/google/uuid"
)

// Frames pushed to a user's other devices when their account changes.
const (
	FrameChatsChanged   = "chats.changed"
	FrameProfileUpdated = "profile.updated"
)

// EventSubscriber is satisfied by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler pktNats.EventHandler) error
}

// EventRelayService listens to domain events on the bus and tells the
// affected user's connected devices to refresh.
type EventRelayService struct {
	subscriber EventSubscriber
	delivery   UpdateDelivery
	logger     logger.ILogger
}

func NewEventRelayService(sub EventSubscriber, delivery UpdateDelivery, log logger.ILogger) *EventRelayService {
	return &EventRelayService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *EventRelayService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, "events.>", "event-relay-worker", s.HandleEvent); err != nil {
		s.logger.Error("EventRelayService", "Failed to start event subscriber", map[string]interface{}{"error": err})
		return err
	}
	s.logger.Info("EventRelayService", "Event relay started, listening to events.>", nil)
	return nil
}

// HandleEvent maps one domain event to a websocket frame. Events without a
// user are acknowledged and ignored.
func (s *EventRelayService) HandleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	rawID, _ := payload["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		s.logger.Debug("EventRelayService", "Event has no user, skipping", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	switch event.EventType() {
	case events.ChatCreated, events.ChatRenamed, events.ChatDeleted:
		s.delivery.Push(userID, FrameChatsChanged, map[string]interface{}{
			"event":   event.EventType(),
			"chat_id": payload["chat_id"],
		})
	case events.ProfileUpdated:
		s.delivery.Push(userID, FrameProfileUpdated, payload)
	case events.UserRegistered:
		s.logger.Info("EventRelayService", "New user registered", map[string]interface{}{"user_id": userID})
	default:
		s.logger.Debug("EventRelayService", "Unhandled event type", map[string]interface{}{"type": event.EventType()})
	}
	return nil
}
