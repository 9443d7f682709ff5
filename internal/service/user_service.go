package service

import (
	"context"

	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/repository/specification"
	"akasha-chat-be/internal/repository/unitofwork"
	"akasha-chat-be/pkg/events"

	"github.com/google/uuid"
)

// ProfileStore applies profile edits (implemented by chat.Repository).
type ProfileStore interface {
	UpdateProfile(ctx context.Context, profile *entity.User, newName *string, avatar *entity.ImageData) (*entity.User, error)
}

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
}

type userService struct {
	uowFactory     unitofwork.RepositoryFactory
	profiles       ProfileStore
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, profiles ProfileStore, eventPublisher EventPublisher, log logger.ILogger) IUserService {
	return &userService{
		uowFactory:     uowFactory,
		profiles:       profiles,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	user, err := s.findUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(user), nil
}

// UpdateProfile changes the name and/or avatar. An avatar that fails to
// upload leaves the previous one in place.
func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	user, err := s.findUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	var avatar *entity.ImageData
	if req.Avatar != nil {
		avatar = &entity.ImageData{Bytes: req.Avatar.Bytes, MimeType: req.Avatar.MimeType}
	}

	updated, err := s.profiles.UpdateProfile(ctx, user, req.Name, avatar)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		data := map[string]interface{}{
			"user_id":      userId.String(),
			"display_name": displayName(updated),
		}
		if updated.AvatarURL != nil {
			data["avatar_url"] = *updated.AvatarURL
		}
		if err := s.eventPublisher.Publish(ctx, events.New(events.ProfileUpdated, data)); err != nil {
			s.logger.Warn("UserService", "Failed to publish event", map[string]interface{}{
				"type":  events.ProfileUpdated,
				"error": err.Error(),
			})
		}
	}

	return toProfileResponse(updated), nil
}

func (s *userService) findUser(ctx context.Context, userId uuid.UUID) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, entity.ErrNotFound
	}
	return user, nil
}

func toProfileResponse(user *entity.User) *dto.UserProfileResponse {
	avatarURL := ""
	if user.AvatarURL != nil {
		avatarURL = *user.AvatarURL
	}
	return &dto.UserProfileResponse{
		Id:          user.Id,
		Email:       user.Email,
		Name:        user.Name,
		DisplayName: displayName(user),
		AvatarURL:   avatarURL,
		CreatedAt:   user.CreatedAt,
	}
}
