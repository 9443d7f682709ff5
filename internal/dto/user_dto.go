package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        *string   `json:"name"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateProfileRequest is the decoded multipart form; Avatar stays nil when
// no file part was sent.
type UpdateProfileRequest struct {
	Name   *string `validate:"omitempty,min=1,max=255"`
	Avatar *AvatarUpload
}

type AvatarUpload struct {
	Bytes    []byte
	MimeType string
}
