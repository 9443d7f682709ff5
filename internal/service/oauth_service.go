package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/pkg/serverutils"
	"akasha-chat-be/internal/repository/specification"
	"akasha-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthModule = "OAuthService"

	googleProvider     = "google"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateLifetime = 10 * time.Minute
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrInvalidOAuthState   = errors.New("invalid oauth state")
)

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider, code, state string) (*dto.LoginResponse, error)
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type oauthService struct {
	sessionIssuer
	uowFactory  unitofwork.RepositoryFactory
	googleConf  *oauth2.Config
	userInfoURL string
	states      *cache.Cache
	logger      logger.ILogger
}

func NewOAuthService(uowFactory unitofwork.RepositoryFactory, tokens *serverutils.TokenIssuer, cfg GoogleConfig, log logger.ILogger) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		sessionIssuer: sessionIssuer{tokens: tokens},
		uowFactory:    uowFactory,
		googleConf:    conf,
		userInfoURL:   googleUserInfoURL,
		states:        cache.New(oauthStateLifetime, time.Minute),
		logger:        log,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != googleProvider {
		return "", ErrUnsupportedProvider
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	s.states.SetDefault(state, struct{}{})

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, code, state string) (*dto.LoginResponse, error) {
	if provider != googleProvider {
		return nil, ErrUnsupportedProvider
	}
	if _, ok := s.states.Get(state); !ok {
		return nil, ErrInvalidOAuthState
	}
	s.states.Delete(state)

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	gUser, err := s.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if gUser.Email == "" || !gUser.VerifiedEmail {
		return nil, ErrInvalidCredentials
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: gUser.Email})
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &entity.User{
			Id:        uuid.New(),
			Email:     strings.ToLower(gUser.Email),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if gUser.Name != "" {
			name := gUser.Name
			user.Name = &name
		}
		if gUser.Picture != "" {
			picture := gUser.Picture
			user.AvatarURL = &picture
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info(oauthModule, "User created from Google sign-in", map[string]interface{}{"user_id": user.Id})
	}

	err = uow.UserRepository().SaveUserProvider(ctx, &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   googleProvider,
		ProviderUserId: gUser.ID,
		AvatarURL:      gUser.Picture,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save provider info: %w", err)
	}

	return s.issue(ctx, uow, user, false, "", "")
}

func (s *oauthService) fetchUser(ctx context.Context, token *oauth2.Token) (*googleUser, error) {
	client := s.googleConf.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed reading user info: %w", err)
	}

	var u googleUser
	if err := json.Unmarshal(content, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	return &u, nil
}
