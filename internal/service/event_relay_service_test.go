package service

import (
	"context"
	"testing"

	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRelay_HandleEvent(t *testing.T) {
	delivery := &recordingDelivery{}
	relay := NewEventRelayService(nil, delivery, logger.NewNopLogger())
	ctx := context.Background()
	uid := uuid.New()
	chatID := uuid.New().String()

	require.NoError(t, relay.HandleEvent(ctx, events.New(events.ChatCreated, map[string]interface{}{
		"user_id": uid.String(),
		"chat_id": chatID,
	})))
	require.NoError(t, relay.HandleEvent(ctx, events.New(events.ProfileUpdated, map[string]interface{}{
		"user_id":      uid.String(),
		"display_name": "Jane",
	})))
	require.NoError(t, relay.HandleEvent(ctx, events.New(events.UserRegistered, map[string]interface{}{
		"user_id": uid.String(),
	})))
	require.NoError(t, relay.HandleEvent(ctx, events.New("SYSTEM_BROADCAST", nil)))

	pushes := delivery.all()
	require.Len(t, pushes, 2)

	assert.Equal(t, uid, pushes[0].userID)
	assert.Equal(t, FrameChatsChanged, pushes[0].kind)
	assert.Equal(t, chatID, pushes[0].data.(map[string]interface{})["chat_id"])

	assert.Equal(t, FrameProfileUpdated, pushes[1].kind)
	assert.Equal(t, "Jane", pushes[1].data.(map[string]interface{})["display_name"])
}
