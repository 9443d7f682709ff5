package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MessagePayload is the jsonb document stored per message row.
type MessagePayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type Message struct {
	Id        int64                              `gorm:"primaryKey;autoIncrement"` // insertion order
	SessionId uuid.UUID                          `gorm:"type:uuid;not null;index"`
	Message   datatypes.JSONType[MessagePayload] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time                          `gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "message"
}
