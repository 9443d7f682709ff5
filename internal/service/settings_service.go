package service

import (
	"context"

	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/entity"
	"akasha-chat-be/pkg/preference"

	"github.com/google/uuid"
)

type ISettingsService interface {
	GetTools(ctx context.Context, userId uuid.UUID) (*dto.ToolSettingsResponse, error)
	UpdateTools(ctx context.Context, userId uuid.UUID, req *dto.UpdateToolSettingsRequest) (*dto.ToolSettingsResponse, error)
}

type settingsService struct {
	prefs preference.Store
}

func NewSettingsService(prefs preference.Store) ISettingsService {
	return &settingsService{prefs: prefs}
}

func (s *settingsService) GetTools(ctx context.Context, userId uuid.UUID) (*dto.ToolSettingsResponse, error) {
	tools, err := s.prefs.Load(ctx, userId)
	if err != nil {
		return nil, err
	}
	return toToolSettings(tools), nil
}

func (s *settingsService) UpdateTools(ctx context.Context, userId uuid.UUID, req *dto.UpdateToolSettingsRequest) (*dto.ToolSettingsResponse, error) {
	tools := entity.NewToolSet()
	for _, name := range req.Enabled {
		t, err := entity.ParseTool(name)
		if err != nil {
			return nil, err
		}
		tools.Toggle(t, true)
	}

	if err := s.prefs.Save(ctx, userId, tools); err != nil {
		return nil, err
	}
	return toToolSettings(tools), nil
}

func toToolSettings(tools entity.ToolSet) *dto.ToolSettingsResponse {
	res := &dto.ToolSettingsResponse{
		Enabled:   make([]string, 0, len(tools)),
		Available: make([]string, 0, len(entity.AllTools)),
	}
	for _, t := range tools.List() {
		res.Enabled = append(res.Enabled, string(t))
	}
	for _, t := range entity.AllTools {
		res.Available = append(res.Available, string(t))
	}
	return res
}
