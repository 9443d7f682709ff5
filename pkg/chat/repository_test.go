package chat

import (
	"context"
	"errors"
	"testing"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository() (*Repository, *memStore, *memBucket) {
	store := newMemStore()
	bucket := newMemBucket()
	return NewRepository(&memFactory{store: store}, bucket, logger.NewNopLogger()), store, bucket
}

func TestRepository_CreateThenList(t *testing.T) {
	repo, _, _ := newTestRepository()
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.CreateChat(ctx, owner, "Trip ideas")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.Id)
	assert.Empty(t, created.Messages)

	chats, err := repo.ListChats(ctx, owner)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, created.Id, chats[0].Id)
	assert.Equal(t, "Trip ideas", chats[0].Title)
	assert.Len(t, chats[0].Messages, 0)
}

func TestRepository_CreateChat_BlankTitle(t *testing.T) {
	repo, _, _ := newTestRepository()

	chat, err := repo.CreateChat(context.Background(), uuid.New(), "  ")
	require.NoError(t, err)
	assert.Equal(t, utils.DefaultChatTitle, chat.Title)
}

func TestRepository_ListChats_NewestFirstWithOrderedMessages(t *testing.T) {
	repo, _, _ := newTestRepository()
	ctx := context.Background()
	owner := uuid.New()

	older, err := repo.CreateChat(ctx, owner, "older")
	require.NoError(t, err)
	newer, err := repo.CreateChat(ctx, owner, "newer")
	require.NoError(t, err)
	_, err = repo.CreateChat(ctx, uuid.New(), "someone else")
	require.NoError(t, err)

	require.NoError(t, repo.AppendMessages(ctx, older.Id,
		entity.NewHumanMessage(older.Id, "q1"),
		entity.NewAIMessage(older.Id, "a1"),
	))
	require.NoError(t, repo.AppendMessages(ctx, older.Id,
		entity.NewHumanMessage(older.Id, "q2"),
		entity.NewAIMessage(older.Id, "a2"),
	))

	chats, err := repo.ListChats(ctx, owner)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, newer.Id, chats[0].Id)
	assert.Equal(t, older.Id, chats[1].Id)

	var contents []string
	for _, m := range chats[1].Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, contents)
	assert.Equal(t, entity.MessageRoleHuman, chats[1].Messages[0].Role)
	assert.Equal(t, entity.MessageRoleAI, chats[1].Messages[1].Role)
}

func TestRepository_ListChats_Errors(t *testing.T) {
	repo, store, _ := newTestRepository()
	ctx := context.Background()
	owner := uuid.New()
	_, err := repo.CreateChat(ctx, owner, "x")
	require.NoError(t, err)

	store.failMessages = errors.New("connection reset")
	_, err = repo.ListChats(ctx, owner)
	assert.ErrorIs(t, err, entity.ErrStore)

	store.failMessages = entity.ErrDecode
	_, err = repo.ListChats(ctx, owner)
	assert.ErrorIs(t, err, entity.ErrDecode)
	assert.NotErrorIs(t, err, entity.ErrStore)

	store.failMessages = nil
	store.failChats = errors.New("down")
	_, err = repo.ListChats(ctx, owner)
	assert.ErrorIs(t, err, entity.ErrStore)
}

func TestRepository_GetChat_OtherOwnerIsNotFound(t *testing.T) {
	repo, _, _ := newTestRepository()
	ctx := context.Background()
	chat, err := repo.CreateChat(ctx, uuid.New(), "mine")
	require.NoError(t, err)

	_, err = repo.GetChat(ctx, uuid.New(), chat.Id)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestRepository_DeleteThenList(t *testing.T) {
	repo, store, _ := newTestRepository()
	ctx := context.Background()
	owner := uuid.New()

	keep, err := repo.CreateChat(ctx, owner, "keep")
	require.NoError(t, err)
	drop, err := repo.CreateChat(ctx, owner, "drop")
	require.NoError(t, err)
	require.NoError(t, repo.AppendMessages(ctx, drop.Id, entity.NewHumanMessage(drop.Id, "bye")))

	ok, err := repo.DeleteChat(ctx, owner, drop.Id)
	require.NoError(t, err)
	assert.True(t, ok)

	chats, err := repo.ListChats(ctx, owner)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, keep.Id, chats[0].Id)
	assert.Empty(t, store.messages)
}

func TestRepository_DeleteChat_Missing(t *testing.T) {
	repo, _, _ := newTestRepository()
	ctx := context.Background()
	owner := uuid.New()
	chat, err := repo.CreateChat(ctx, owner, "x")
	require.NoError(t, err)

	ok, err := repo.DeleteChat(ctx, uuid.New(), chat.Id)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteChat(ctx, owner, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_RenameChat(t *testing.T) {
	repo, _, _ := newTestRepository()
	ctx := context.Background()
	owner := uuid.New()
	chat, err := repo.CreateChat(ctx, owner, "before")
	require.NoError(t, err)

	renamed, err := repo.RenameChat(ctx, owner, chat.Id, " after ")
	require.NoError(t, err)
	assert.Equal(t, "after", renamed.Title)

	_, err = repo.RenameChat(ctx, uuid.New(), chat.Id, "hijack")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func seedUser(store *memStore, avatar string) entity.User {
	name := "Old Name"
	u := entity.User{Id: uuid.New(), Email: "jane@example.com", Name: &name}
	if avatar != "" {
		u.AvatarURL = &avatar
	}
	store.users[u.Id] = u
	return u
}

func TestRepository_UpdateProfile_NameOnlyKeepsAvatar(t *testing.T) {
	repo, store, bucket := newTestRepository()
	user := seedUser(store, "https://cdn.test/old.png")

	newName := "Jane"
	updated, err := repo.UpdateProfile(context.Background(), &user, &newName, nil)

	require.NoError(t, err)
	assert.Equal(t, "Jane", *updated.Name)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, "https://cdn.test/old.png", *updated.AvatarURL)
	assert.Empty(t, bucket.objects)
}

func TestRepository_UpdateProfile_UploadsAvatar(t *testing.T) {
	repo, store, bucket := newTestRepository()
	user := seedUser(store, "")

	updated, err := repo.UpdateProfile(context.Background(), &user, nil, &entity.ImageData{
		Bytes:    []byte{0x89, 'P', 'N', 'G'},
		MimeType: "image/png",
	})

	require.NoError(t, err)
	key := AvatarKey(user.Id, "image/png")
	assert.Contains(t, bucket.objects, key)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, bucket.PublicURL(key), *updated.AvatarURL)
	assert.Equal(t, "Old Name", *updated.Name)
}

func TestRepository_UpdateProfile_UploadFailureKeepsOldAvatar(t *testing.T) {
	repo, store, bucket := newTestRepository()
	user := seedUser(store, "https://cdn.test/old.png")
	bucket.fail = errors.New("bucket offline")

	newName := "Jane"
	updated, err := repo.UpdateProfile(context.Background(), &user, &newName, &entity.ImageData{
		Bytes:    []byte("jpeg"),
		MimeType: "image/jpeg",
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane", *updated.Name)
	assert.Equal(t, "https://cdn.test/old.png", *updated.AvatarURL)
}

func TestRepository_UpdateProfile_UnknownUser(t *testing.T) {
	repo, _, _ := newTestRepository()
	name := "x"

	_, err := repo.UpdateProfile(context.Background(), &entity.User{Id: uuid.New()}, &name, nil)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestAvatarKey(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpg"},
		{"image/webp; charset=binary", "webp"},
		{"image/svg+xml", "svgxml"},
		{"", "jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, id.String()+"/avatar_"+id.String()+"."+tt.want, AvatarKey(id, tt.mime))
		})
	}
}
