package preference

import (
	"context"
	"encoding/json"
	"fmt"

	"akasha-chat-be/internal/entity"

	"github.com/google/uuid"
)

// Store persists which assistant tools a user has switched on.
// A user with no saved preference gets every tool.
type Store interface {
	Load(ctx context.Context, userID uuid.UUID) (entity.ToolSet, error)
	Save(ctx context.Context, userID uuid.UUID, tools entity.ToolSet) error
}

func toolsKey(userID uuid.UUID) string {
	return fmt.Sprintf("prefs:tools:%s", userID)
}

func encode(tools entity.ToolSet) ([]byte, error) {
	if tools == nil {
		tools = entity.NewToolSet()
	}
	return json.Marshal(tools)
}

// decode drops names it no longer knows instead of failing, so retiring a
// tool does not lock users out of their settings.
func decode(data []byte) (entity.ToolSet, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	set := entity.NewToolSet()
	for _, r := range raw {
		if t, err := entity.ParseTool(r); err == nil {
			set[t] = struct{}{}
		}
	}
	return set, nil
}
