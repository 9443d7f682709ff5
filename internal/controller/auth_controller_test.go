package controller

import (
	"context"
	"testing"

	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*dto.RegisterResponse)
	return res, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	args := m.Called(ctx, req, ipAddress, userAgent)
	res, _ := args.Get(0).(*dto.LoginResponse)
	return res, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return m.Called(ctx, accessToken, refreshToken).Error(0)
}

func (m *mockAuthService) IsRevoked(tokenHash string) bool {
	return m.Called(tokenHash).Bool(0)
}

func TestAuthController_Register(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"created", nil, fiber.StatusCreated, "User registered successfully"},
		{"duplicate", service.ErrUserExists, fiber.StatusConflict, "User already exists."},
		{"weak", service.ErrWeakPassword, fiber.StatusBadRequest, "The password is too weak."},
		{"unknown", assert.AnError, fiber.StatusInternalServerError, "An unknown error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{}
			app := newTestApp(NewAuthController(svc, logger.NewNopLogger()))

			var res *dto.RegisterResponse
			if tt.err == nil {
				res = &dto.RegisterResponse{Id: uuid.New(), Email: "a@b.io"}
			}
			svc.On("Register", mock.Anything, &dto.RegisterRequest{Email: "a@b.io", Password: "secret123"}).Return(res, tt.err).Once()

			status, env := call(t, app, "POST", "/api/auth/register", `{"email":"a@b.io","password":"secret123"}`)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestAuthController_Login(t *testing.T) {
	svc := &mockAuthService{}
	app := newTestApp(NewAuthController(svc, logger.NewNopLogger()))

	svc.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrInvalidCredentials).Once()
	status, env := call(t, app, "POST", "/api/auth/login", `{"email":"a@b.io","password":"x"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password.", env.Message)

	status, _ = call(t, app, "POST", "/api/auth/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthController_LogoutAlwaysSucceeds(t *testing.T) {
	svc := &mockAuthService{}
	app := newTestApp(NewAuthController(svc, logger.NewNopLogger()))

	svc.On("Logout", mock.Anything, "", "refresh-1").Return(assert.AnError).Once()
	status, env := call(t, app, "POST", "/api/auth/logout", `{"refresh_token":"refresh-1"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
	svc.AssertExpectations(t)
}
