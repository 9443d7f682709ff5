package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/pkg/assistant"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	ctrl     *Controller
	repo     *Repository
	store    *memStore
	notifier *recordingNotifier
	metrics  *recordingMetrics
	calls    *int32
	owner    uuid.UUID
}

func newControllerFixture(t *testing.T, endpoint assistant.EndpointFunc, persist bool) *controllerFixture {
	t.Helper()
	repo, store, _ := newTestRepository()
	var calls int32
	counted := assistant.EndpointFunc(func(ctx context.Context, req assistant.Request) (string, error) {
		atomic.AddInt32(&calls, 1)
		return endpoint(ctx, req)
	})
	notifier := &recordingNotifier{}
	metrics := &recordingMetrics{}
	ctrl := NewController(repo, counted, newMapSessions(), notifier, metrics, logger.NewNopLogger(), ControllerConfig{
		PersistMessages: persist,
		ReplyTimeout:    time.Second,
	})
	return &controllerFixture{
		ctrl:     ctrl,
		repo:     repo,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		calls:    &calls,
		owner:    uuid.New(),
	}
}

func (f *controllerFixture) openWithMessages(t *testing.T, n int) *Session {
	t.Helper()
	ctx := context.Background()
	chat, err := f.repo.CreateChat(ctx, f.owner, "seed")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, f.repo.AppendMessages(ctx, chat.Id, entity.NewHumanMessage(chat.Id, "earlier")))
	}
	s, err := f.ctrl.Open(ctx, f.owner, chat.Id)
	require.NoError(t, err)
	require.Len(t, s.Snapshot().Messages, n)
	return s
}

func reply(out string) assistant.EndpointFunc {
	return func(ctx context.Context, req assistant.Request) (string, error) { return out, nil }
}

func failing(err error) assistant.EndpointFunc {
	return func(ctx context.Context, req assistant.Request) (string, error) { return "", err }
}

func TestController_Send_SuccessAddsHumanThenAI(t *testing.T) {
	f := newControllerFixture(t, reply("X"), false)
	s := f.openWithMessages(t, 3)

	chat, err := f.ctrl.Send(context.Background(), s, "hello", entity.DefaultToolSet())

	require.NoError(t, err)
	require.Len(t, chat.Messages, 5)
	assert.Equal(t, entity.MessageRoleHuman, chat.Messages[3].Role)
	assert.Equal(t, "hello", chat.Messages[3].Content)
	assert.Equal(t, entity.MessageRoleAI, chat.Messages[4].Role)
	assert.Equal(t, "X", chat.Messages[4].Content)
	assert.False(t, s.IsSending())
	assert.Equal(t, []string{UpdatePending, UpdateUpdated}, f.notifier.kinds())
	assert.Equal(t, []string{"ok"}, f.metrics.statuses)
}

func TestController_Send_FailureRollsBack(t *testing.T) {
	f := newControllerFixture(t, failing(entity.ErrTransport), true)
	s := f.openWithMessages(t, 2)

	chat, err := f.ctrl.Send(context.Background(), s, "  hello  ", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.ErrorIs(t, err, entity.ErrTransport)
	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "hello", sendErr.Draft)

	assert.Len(t, chat.Messages, 2)
	assert.Len(t, s.Snapshot().Messages, 2)
	assert.False(t, s.IsSending())
	assert.Len(t, f.store.messages, 2, "nothing persisted on failure")
	assert.Equal(t, []string{"failed"}, f.metrics.statuses)
}

func TestController_Send_AppendsImmediately(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newControllerFixture(t, func(ctx context.Context, req assistant.Request) (string, error) {
		close(entered)
		<-release
		return "", errors.New("boom")
	}, false)
	s := f.openWithMessages(t, 1)

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Send(context.Background(), s, "hi", nil)
		done <- err
	}()

	<-entered
	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "hi", snap.Messages[1].Content)
	assert.True(t, s.IsSending())

	close(release)
	assert.ErrorIs(t, <-done, ErrSendFailed)
	assert.Len(t, s.Snapshot().Messages, 1)
}

func TestController_Send_WhileSendingIsRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newControllerFixture(t, func(ctx context.Context, req assistant.Request) (string, error) {
		close(entered)
		<-release
		return "first", nil
	}, false)
	s := f.openWithMessages(t, 0)

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Send(context.Background(), s, "one", nil)
		done <- err
	}()
	<-entered

	_, err := f.ctrl.Send(context.Background(), s, "two", nil)
	assert.ErrorIs(t, err, ErrSendInProgress)
	assert.Len(t, s.Snapshot().Messages, 1)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.calls))
	assert.Len(t, s.Snapshot().Messages, 2)
}

func TestController_Send_BlankIsNoop(t *testing.T) {
	f := newControllerFixture(t, reply("X"), false)
	s := f.openWithMessages(t, 1)

	_, err := f.ctrl.Send(context.Background(), s, " \n\t ", nil)

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.Snapshot().Messages, 1)
	assert.Equal(t, int32(0), atomic.LoadInt32(f.calls))
	assert.Empty(t, f.notifier.kinds())
}

func TestController_Send_ForwardsToolsAndHistory(t *testing.T) {
	var got assistant.Request
	f := newControllerFixture(t, func(ctx context.Context, req assistant.Request) (string, error) {
		got = req
		return "ok", nil
	}, false)
	s := f.openWithMessages(t, 2)

	_, err := f.ctrl.Send(context.Background(), s, "next", entity.NewToolSet(entity.ToolWebSearch))

	require.NoError(t, err)
	assert.Equal(t, s.ID().String(), got.ChatID)
	assert.Equal(t, "next", got.Text)
	assert.Equal(t, []entity.Tool{entity.ToolWebSearch}, got.Tools)
	assert.Len(t, got.History, 2)
}

func TestController_Send_SurvivesCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newControllerFixture(t, func(c context.Context, req assistant.Request) (string, error) {
		cancel()
		select {
		case <-c.Done():
			return "", c.Err()
		case <-time.After(20 * time.Millisecond):
			return "done", nil
		}
	}, false)
	s := f.openWithMessages(t, 0)

	chat, err := f.ctrl.Send(ctx, s, "hi", nil)

	require.NoError(t, err)
	assert.Len(t, chat.Messages, 2)
}

func TestController_Send_PersistsPair(t *testing.T) {
	f := newControllerFixture(t, reply("answer"), true)
	s := f.openWithMessages(t, 0)

	_, err := f.ctrl.Send(context.Background(), s, "question", nil)
	require.NoError(t, err)

	stored, err := f.repo.GetChat(context.Background(), f.owner, s.ID())
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "question", stored.Messages[0].Content)
	assert.Equal(t, "answer", stored.Messages[1].Content)
}

func TestController_Send_PersistFailureKeepsReply(t *testing.T) {
	f := newControllerFixture(t, reply("answer"), true)
	s := f.openWithMessages(t, 0)
	f.store.failMessages = errors.New("disk full")

	chat, err := f.ctrl.Send(context.Background(), s, "question", nil)

	require.NoError(t, err)
	assert.Len(t, chat.Messages, 2)
}

func TestController_StartChat(t *testing.T) {
	f := newControllerFixture(t, reply("Paris"), false)

	chat, err := f.ctrl.StartChat(context.Background(), f.owner, "What is the capital city of France?", nil)

	require.NoError(t, err)
	assert.Equal(t, "What is the capital", chat.Title)
	require.Len(t, chat.Messages, 2)
	cached, ok := f.ctrl.Peek(chat.Id)
	require.True(t, ok)
	assert.Len(t, cached.Snapshot().Messages, 2)
}

func TestController_StartChat_CreateFailureSendsNothing(t *testing.T) {
	f := newControllerFixture(t, reply("X"), false)
	f.store.failChats = errors.New("down")

	_, err := f.ctrl.StartChat(context.Background(), f.owner, "hello", nil)

	assert.ErrorIs(t, err, entity.ErrStore)
	assert.Equal(t, int32(0), atomic.LoadInt32(f.calls))
}

func TestController_StartChat_FailureKeepsEmptyChat(t *testing.T) {
	f := newControllerFixture(t, failing(entity.ErrDecode), false)

	chat, err := f.ctrl.StartChat(context.Background(), f.owner, "hello", nil)

	assert.ErrorIs(t, err, ErrSendFailed)
	require.NotNil(t, chat)
	assert.Empty(t, chat.Messages)

	chats, err := f.repo.ListChats(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestController_Open_OtherOwner(t *testing.T) {
	f := newControllerFixture(t, reply("X"), false)
	s := f.openWithMessages(t, 0)

	_, err := f.ctrl.Open(context.Background(), uuid.New(), s.ID())
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestController_Send_EmptyReplyRollsBack(t *testing.T) {
	f := newControllerFixture(t, reply(" \n "), true)
	s := f.openWithMessages(t, 1)

	_, err := f.ctrl.Send(context.Background(), s, "hello", nil)

	assert.ErrorIs(t, err, ErrSendFailed)
	assert.ErrorIs(t, err, entity.ErrDecode)
	assert.Len(t, s.Snapshot().Messages, 1)
	assert.Equal(t, []string{"failed"}, f.metrics.statuses)

	// Nothing undecodable reached the store, so reads keep working.
	chats, err := f.repo.ListChats(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Len(t, chats[0].Messages, 1)
}

func TestController_Send_PersistedReplyReadsBack(t *testing.T) {
	f := newControllerFixture(t, reply("**4**"), true)
	s := f.openWithMessages(t, 0)

	_, err := f.ctrl.Send(context.Background(), s, "2+2?", nil)
	require.NoError(t, err)

	loaded, err := f.repo.GetChat(context.Background(), f.owner, s.ID())
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, entity.MessageRoleHuman, loaded.Messages[0].Role)
	assert.Equal(t, entity.MessageRoleAI, loaded.Messages[1].Role)
	assert.Equal(t, "**4**", loaded.Messages[1].Content)
}

// rendezvousStore holds every GetChat until n callers have arrived, so
// concurrent Opens all miss the session cache.
type rendezvousStore struct {
	Store
	arrived sync.WaitGroup
}

func (s *rendezvousStore) GetChat(ctx context.Context, ownerID, chatID uuid.UUID) (*entity.Chat, error) {
	s.arrived.Done()
	s.arrived.Wait()
	return s.Store.GetChat(ctx, ownerID, chatID)
}

func TestController_ConcurrentOpenSharesSendGuard(t *testing.T) {
	repo, _, _ := newTestRepository()
	owner := uuid.New()
	created, err := repo.CreateChat(context.Background(), owner, "seed")
	require.NoError(t, err)

	store := &rendezvousStore{Store: repo}
	store.arrived.Add(2)

	var calls int32
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	endpoint := assistant.EndpointFunc(func(ctx context.Context, req assistant.Request) (string, error) {
		atomic.AddInt32(&calls, 1)
		entered <- struct{}{}
		select {
		case <-release:
			return "answer", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	ctrl := NewController(store, endpoint, newMapSessions(), nil, nil, logger.NewNopLogger(), ControllerConfig{
		ReplyTimeout: 5 * time.Second,
	})

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			s, err := ctrl.Open(context.Background(), owner, created.Id)
			if err != nil {
				results <- err
				return
			}
			_, err = ctrl.Send(context.Background(), s, "hi", nil)
			results <- err
		}()
	}

	<-entered
	// The in-flight send cannot finish before release, so the first result
	// is the rejected one.
	assert.ErrorIs(t, <-results, ErrSendInProgress)
	close(release)
	assert.NoError(t, <-results)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	s, ok := ctrl.Peek(created.Id)
	require.True(t, ok)
	assert.Len(t, s.Snapshot().Messages, 2)
}
