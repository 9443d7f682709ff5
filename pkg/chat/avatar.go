package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var mimeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/heic": "heic",
}

// AvatarKey is the object path of a user's avatar. One key per user so a new
// upload overwrites the old one.
func AvatarKey(userID uuid.UUID, mimeType string) string {
	return fmt.Sprintf("%s/avatar_%s.%s", userID, userID, extensionFor(mimeType))
}

func extensionFor(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if ext, ok := mimeExtensions[mt]; ok {
		return ext
	}
	if i := strings.LastIndex(mt, "/"); i >= 0 && i < len(mt)-1 {
		sub := mt[i+1:]
		clean := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, sub)
		if clean != "" {
			return clean
		}
	}
	return "jpg"
}

func contentType(mimeType string) string {
	if strings.TrimSpace(mimeType) == "" {
		return "image/jpeg"
	}
	return mimeType
}
