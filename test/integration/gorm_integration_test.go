package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/repository/unitofwork"
	"akasha-chat-be/pkg/chat"
	"akasha-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type discardStorage struct{}

func (discardStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}

func (discardStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	return gormDB
}

func createUser(t *testing.T, uowFactory unitofwork.RepositoryFactory) *entity.User {
	t.Helper()
	user := &entity.User{
		Id:    uuid.New(),
		Email: "test-integration-" + uuid.New().String() + "@example.com",
	}
	uow := uowFactory.NewUnitOfWork(context.Background())
	require.NoError(t, uow.UserRepository().Create(context.Background(), user))
	return user
}

func TestGormConnection(t *testing.T) {
	gormDB := openDB(t)

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ChatRepository())
	assert.NotNil(t, uow.MessageRepository())

	sqlDB, _ := gormDB.DB()
	assert.NoError(t, sqlDB.Ping())

	count, err := uow.UserRepository().Count(context.Background())
	assert.NoError(t, err)
	t.Logf("User count: %d", count)
}

func TestChatRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	gormDB := openDB(t)
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	repo := chat.NewRepository(uowFactory, discardStorage{}, logger.NewNopLogger())

	owner := createUser(t, uowFactory)

	created, err := repo.CreateChat(ctx, owner.Id, "Integration")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.Id)

	chats, err := repo.ListChats(ctx, owner.Id)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "Integration", chats[0].Title)
	assert.Empty(t, chats[0].Messages)

	require.NoError(t, repo.AppendMessages(ctx, created.Id,
		entity.NewHumanMessage(created.Id, "first"),
		entity.NewAIMessage(created.Id, "second"),
	))

	loaded, err := repo.GetChat(ctx, owner.Id, created.Id)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, entity.MessageRoleHuman, loaded.Messages[0].Role)
	assert.Equal(t, "second", loaded.Messages[1].Content)

	// Another user's id behaves like a missing chat.
	_, err = repo.GetChat(ctx, uuid.New(), created.Id)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	removed, err := repo.DeleteChat(ctx, owner.Id, created.Id)
	require.NoError(t, err)
	assert.True(t, removed)

	chats, err = repo.ListChats(ctx, owner.Id)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestChatRepository_UpdateProfileNameOnly(t *testing.T) {
	ctx := context.Background()
	gormDB := openDB(t)
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	repo := chat.NewRepository(uowFactory, discardStorage{}, logger.NewNopLogger())

	owner := createUser(t, uowFactory)
	avatar := "https://cdn.test/old.png"
	uow := uowFactory.NewUnitOfWork(ctx)
	_, err := uow.UserRepository().UpdateProfile(ctx, owner.Id, nil, &avatar)
	require.NoError(t, err)
	owner.AvatarURL = &avatar

	name := "Integration Name"
	updated, err := repo.UpdateProfile(ctx, owner, &name, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Name)
	assert.Equal(t, name, *updated.Name)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)
}
