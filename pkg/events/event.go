package events

import "time"

// Domain event types published on the bus.
const (
	ChatCreated    = "CHAT_CREATED"
	ChatRenamed    = "CHAT_RENAMED"
	ChatDeleted    = "CHAT_DELETED"
	ProfileUpdated = "PROFILE_UPDATED"
	UserRegistered = "USER_REGISTERED"
	UserLoggedIn   = "USER_LOGGED_IN"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_CREATED").
	EventType() string

	// Payload returns the data associated with the event. Events addressed
	// to a user carry "user_id".
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
