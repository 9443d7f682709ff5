package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"akasha-chat-be/internal/config"
	"akasha-chat-be/internal/controller"
	"akasha-chat-be/internal/handler"
	"akasha-chat-be/internal/metrics"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/pkg/mailer"
	"akasha-chat-be/internal/pkg/serverutils"
	"akasha-chat-be/internal/repository/memory"
	"akasha-chat-be/internal/repository/unitofwork"
	"akasha-chat-be/internal/service"
	"akasha-chat-be/internal/websocket"
	"akasha-chat-be/pkg/assistant/factory"
	"akasha-chat-be/pkg/chat"
	"akasha-chat-be/pkg/markdown"
	pktNats "akasha-chat-be/pkg/nats"
	"akasha-chat-be/pkg/preference"
	"akasha-chat-be/pkg/storage/s3"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	OAuthController    controller.IOAuthController
	UserController     controller.IUserController
	ChatController     controller.IChatController
	SettingsController controller.ISettingsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	EventRelay      *service.EventRelayService

	// WebSockets & Observability
	WsHandler    *handler.WsHandler
	WebSocketHub *websocket.Hub
	Metrics      *metrics.Metrics
	Logger       *logger.ZapLogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	if cfg.Keys.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	tokens := serverutils.NewTokenIssuer(cfg.Keys.JWTSecret, 24*time.Hour)

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.App.ClientURL,
			sysLogger,
		)
	} else {
		log.Println("[INFO] SMTP_HOST not set, welcome e-mails are disabled")
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}
	c.closers = append(c.closers, natsPub.Close, natsSub.Close)

	// Redis
	rdb := connectRedis(cfg.App.RedisURL)
	var prefs preference.Store
	if rdb != nil {
		prefs = preference.NewRedisStore(rdb)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	} else {
		log.Println("[WARN] Redis unavailable, tool preferences are kept in memory")
		prefs = preference.NewMemoryStore()
	}

	// 3. Storage
	avatars, err := s3.New(s3.Config{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		UseSSL:        cfg.Storage.UseSSL,
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}
	bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := avatars.EnsureBucket(bucketCtx); err != nil {
		log.Printf("[WARN] Failed to prepare avatar bucket %q: %v", cfg.Storage.Bucket, err)
	}
	cancel()

	// 4. Assistant
	endpoint, err := factory.NewEndpoint(factory.Options{
		Provider:   cfg.Assistant.Provider,
		URL:        cfg.Assistant.AssistantURL(),
		APIKey:     cfg.Keys.OpenAI,
		Model:      cfg.Assistant.Model,
		Timeout:    cfg.Assistant.Timeout,
		RatePerSec: cfg.Assistant.RatePerSec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize assistant endpoint: %w", err)
	}
	log.Printf("[INFO] Using assistant provider: %s", cfg.Assistant.Provider)

	// 5. Chat core
	sessions := memory.NewSessionRepository(cfg.Chat.SessionTTL)
	appMetrics := metrics.New(sessions.Count)
	c.Metrics = appMetrics

	updates := service.NewChatUpdatePublisher(pubSub, cfg.Chat.UpdatesTopic, sysLogger)
	chatRepo := chat.NewRepository(uowFactory, avatars, sysLogger)
	chatController := chat.NewController(
		chatRepo,
		endpoint,
		sessions,
		updates,
		appMetrics,
		sysLogger,
		chat.ControllerConfig{
			PersistMessages: cfg.Chat.PersistMessages || !factory.KeepsOwnMemory(cfg.Assistant.Provider),
			ReplyTimeout:    cfg.Assistant.Timeout,
		},
	)

	// 6. WebSocket Hub
	wsHub := websocket.NewHub(rdb, appMetrics, sysLogger)
	c.WebSocketHub = wsHub

	// 7. Services
	authService := service.NewAuthService(uowFactory, tokens, emailService, natsPub, sysLogger)
	oauthService := service.NewOAuthService(uowFactory, tokens, service.GoogleConfig{
		ClientID:     cfg.Keys.GoogleClientID,
		ClientSecret: cfg.Keys.GoogleClientSecret,
		RedirectURL:  cfg.Keys.GoogleRedirectURL,
	}, sysLogger)
	userService := service.NewUserService(uowFactory, chatRepo, natsPub, sysLogger)
	settingsService := service.NewSettingsService(prefs)
	chatService := service.NewChatService(
		chatRepo,
		chatController,
		prefs,
		updates,
		markdown.NewRenderer(),
		natsPub,
		sysLogger,
	)

	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Chat.UpdatesTopic, wsHub, sysLogger)
	if natsSub != nil {
		c.EventRelay = service.NewEventRelayService(natsSub, wsHub, sysLogger)
	}

	// 8. Controllers
	authMiddleware := serverutils.JwtMiddleware(tokens, authService)

	c.AuthController = controller.NewAuthController(authService, sysLogger)
	c.OAuthController = controller.NewOAuthController(oauthService, cfg.App.ClientURL, sysLogger)
	c.UserController = controller.NewUserController(userService, authMiddleware)
	c.ChatController = controller.NewChatController(chatService, authMiddleware)
	c.SettingsController = controller.NewSettingsController(settingsService, authMiddleware)
	c.WsHandler = handler.NewWsHandler(wsHub, tokens, authService, sysLogger)

	return c, nil
}

// Close releases broker and cache connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

// connectRedis returns nil when the server cannot be reached.
func connectRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
