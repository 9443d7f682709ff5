package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/pkg/mailer"
	"akasha-chat-be/internal/pkg/serverutils"
	"akasha-chat-be/internal/repository/specification"
	"akasha-chat-be/internal/repository/unitofwork"
	"akasha-chat-be/pkg/events"
	"akasha-chat-be/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	authModule = "AuthService"

	minPasswordLength = 8
	refreshTokenTTL   = 30 * 24 * time.Hour
)

// Auth failure kinds. AuthMessage turns them into the text shown to users.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrWeakPassword       = errors.New("weak password")
)

// AuthMessage returns the user-facing message for an auth failure.
func AuthMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrUserExists):
		return "User already exists."
	case errors.Is(err, ErrWeakPassword):
		return "The password is too weak."
	}
	return "An unknown error occurred"
}

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	IsRevoked(tokenHash string) bool
}

// sessionIssuer signs access tokens and records refresh tokens. Shared by
// password and Google sign-in.
type sessionIssuer struct {
	tokens *serverutils.TokenIssuer
}

type authService struct {
	sessionIssuer
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	eventPublisher EventPublisher
	revoked        *cache.Cache
	logger         logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	tokens *serverutils.TokenIssuer,
	emailService mailer.IEmailService,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IAuthService {
	return &authService{
		sessionIssuer:  sessionIssuer{tokens: tokens},
		uowFactory:     uowFactory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		revoked:        cache.New(24*time.Hour, 10*time.Minute),
		logger:         log,
	}
}

// checkPassword requires eight characters mixing letters and digits.
func checkPassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return ErrWeakPassword
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return ErrWeakPassword
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &entity.User{
		Id:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: &hashStr,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = &name
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, map[string]interface{}{
		"user_id": user.Id.String(),
		"email":   user.Email,
	})

	if s.emailService != nil {
		email, name := user.Email, displayName(user)
		go func() {
			// failure is logged by the mailer
			_ = s.emailService.SendWelcome(email, name)
		}()
	}

	return &dto.RegisterResponse{Id: user.Id, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	// Accounts created through Google have no password.
	if user == nil || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(ctx, uow, user, req.RememberMe, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.UserLoggedIn, map[string]interface{}{
		"user_id": user.Id.String(),
		"device":  userAgent,
	})
	return res, nil
}

func (s sessionIssuer) issue(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, remember bool, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	accessToken, expiresAt, err := s.tokens.Issue(user.Id)
	if err != nil {
		return nil, err
	}

	var rawRefreshToken string
	if remember {
		rawRefreshToken = uuid.New().String()
		err = uow.UserRepository().CreateRefreshToken(ctx, &entity.UserRefreshToken{
			Id:        uuid.New(),
			UserId:    user.Id,
			TokenHash: serverutils.HashToken(rawRefreshToken),
			ExpiresAt: time.Now().Add(refreshTokenTTL),
			CreatedAt: time.Now(),
			IpAddress: ipAddress,
			UserAgent: userAgent,
		})
		if err != nil {
			return nil, err
		}
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		ExpiresAt:    expiresAt,
		RefreshToken: rawRefreshToken,
		User: dto.UserDTO{
			Id:          user.Id,
			Email:       user.Email,
			DisplayName: displayName(user),
		},
	}, nil
}

// Logout revokes the access token for the rest of its lifetime and the
// refresh token, when one was sent.
func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		s.revoked.SetDefault(serverutils.HashToken(accessToken), struct{}{})
	}
	if refreshToken == "" {
		return nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UserRepository().RevokeRefreshToken(ctx, serverutils.HashToken(refreshToken))
}

func (s *authService) IsRevoked(tokenHash string) bool {
	_, found := s.revoked.Get(tokenHash)
	return found
}

func (s *authService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn(authModule, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

// displayName is the stored name, or one derived from the email.
func displayName(user *entity.User) string {
	if user.Name != nil && strings.TrimSpace(*user.Name) != "" {
		return *user.Name
	}
	return utils.DisplayNameFromEmail(user.Email)
}
