package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"
	"himo-chat-go/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func saveUserCommand(user models.UserProfile) Command {
	return Command{
		Key: "user:" + user.Id,
		Run: func(ctx context.Context, s store.ChatStore) error {
			return s.SaveUser(ctx, &user)
		},
	}
}

func TestPersisterRetriesFailedCommands(t *testing.T) {
	mockStore := new(storetest.MockStore)
	mockStore.On("SaveUser", mock.Anything, mock.Anything).Return(errors.New("disk I/O error")).Once()
	mockStore.On("SaveUser", mock.Anything, mock.Anything).Return(nil)

	p := NewPersister(mockStore, 4, time.Second)
	p.Start()
	defer p.Close(context.Background())

	ctx := context.Background()
	require.NoError(t, p.Submit(saveUserCommand(models.UserProfile{Id: "u1"})))
	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, []string{"user:u1"}, p.FailedKeys())

	require.NoError(t, p.Retry(ctx))
	assert.Empty(t, p.FailedKeys())
	mockStore.AssertNumberOfCalls(t, "SaveUser", 2)
}

func TestPersisterRetryReportsPersistentFailure(t *testing.T) {
	mockStore := new(storetest.MockStore)
	mockStore.On("SaveUser", mock.Anything, mock.Anything).Return(store.ErrStoreUnavailable)

	p := NewPersister(mockStore, 4, time.Second)
	p.Start()
	defer p.Close(context.Background())

	ctx := context.Background()
	require.NoError(t, p.Submit(saveUserCommand(models.UserProfile{Id: "u1"})))
	require.NoError(t, p.Flush(ctx))

	err := p.Retry(ctx)
	assert.True(t, errors.Is(err, store.ErrStoreUnavailable))
	assert.Equal(t, []string{"user:u1"}, p.FailedKeys())
}

func TestPersisterNewerCommandSupersedesFailure(t *testing.T) {
	mockStore := new(storetest.MockStore)
	mockStore.On("SaveUser", mock.Anything, mock.Anything).Return(errors.New("locked")).Once()
	mockStore.On("SaveUser", mock.Anything, mock.Anything).Return(nil)

	p := NewPersister(mockStore, 4, time.Second)
	p.Start()
	defer p.Close(context.Background())

	ctx := context.Background()
	require.NoError(t, p.Submit(saveUserCommand(models.UserProfile{Id: "u1", HimCoins: 10})))
	require.NoError(t, p.Submit(saveUserCommand(models.UserProfile{Id: "u1", HimCoins: 20})))
	require.NoError(t, p.Flush(ctx))

	assert.Empty(t, p.FailedKeys())
	mockStore.AssertNumberOfCalls(t, "SaveUser", 2)
}

func TestPersisterRunsCommandsInOrder(t *testing.T) {
	p := NewPersister(new(storetest.MockStore), 2, time.Second)
	p.Start()
	defer p.Close(context.Background())

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, p.Submit(Command{
			Key: "noop",
			Run: func(ctx context.Context, s store.ChatStore) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, i)
				return nil
			},
		}))
	}
	require.NoError(t, p.Flush(context.Background()))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestPersisterClose(t *testing.T) {
	p := NewPersister(new(storetest.MockStore), 1, time.Second)
	p.Start()

	ran := false
	require.NoError(t, p.Submit(Command{
		Key: "noop",
		Run: func(ctx context.Context, s store.ChatStore) error {
			ran = true
			return nil
		},
	}))

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, ran, "close drains queued commands")

	err := p.Submit(Command{Key: "late", Run: func(context.Context, store.ChatStore) error { return nil }})
	assert.True(t, errors.Is(err, ErrPersisterClosed))
	assert.NoError(t, p.Close(context.Background()))
}

type recordedSaves struct {
	mu     sync.Mutex
	values []int64
}

func (r *recordedSaves) record(args mock.Arguments) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, args.Get(1).(*models.UserProfile).HimCoins)
}

func (r *recordedSaves) all() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.values...)
}

func TestPersisterRetryKeepsNewerSnapshot(t *testing.T) {
	release := make(chan struct{})
	saved := &recordedSaves{}

	mockStore := new(storetest.MockStore)
	mockStore.On("SaveUser", mock.Anything, mock.Anything).
		Run(saved.record).Return(errors.New("database is locked")).Once()
	mockStore.On("SaveUser", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-release
			saved.record(args)
		}).Return(nil)

	p := NewPersister(mockStore, 4, time.Second)
	p.Start()
	defer p.Close(context.Background())

	ctx := context.Background()
	require.NoError(t, p.Submit(saveUserCommand(models.UserProfile{Id: "u1", HimCoins: 490})))
	require.NoError(t, p.Flush(ctx))
	require.Equal(t, []string{"user:u1"}, p.FailedKeys())

	// The newer snapshot is held in the store while the retry is requested
	require.NoError(t, p.Submit(saveUserCommand(models.UserProfile{Id: "u1", HimCoins: 480})))

	retryDone := make(chan error, 1)
	go func() { retryDone <- p.Retry(ctx) }()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-retryDone)
	require.NoError(t, p.Flush(ctx))

	assert.Equal(t, []int64{490, 480}, saved.all())
	assert.Empty(t, p.FailedKeys())
}

func TestPersisterSkipsQueuedRetryAfterNewerSubmit(t *testing.T) {
	saved := &recordedSaves{}

	mockStore := new(storetest.MockStore)
	mockStore.On("SaveUser", mock.Anything, mock.Anything).
		Run(saved.record).Return(errors.New("database is locked")).Once()
	mockStore.On("SaveUser", mock.Anything, mock.Anything).
		Run(saved.record).Return(nil)

	p := NewPersister(mockStore, 4, time.Second)
	p.Start()
	defer p.Close(context.Background())

	ctx := context.Background()
	require.NoError(t, p.Submit(saveUserCommand(models.UserProfile{Id: "u1", HimCoins: 490})))
	require.NoError(t, p.Flush(ctx))

	// Hold the worker so the retry sits in the queue behind it
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, p.Submit(Command{
		Key: "gate",
		Run: func(context.Context, store.ChatStore) error {
			close(started)
			<-release
			return nil
		},
	}))
	<-started

	retryDone := make(chan error, 1)
	go func() { retryDone <- p.Retry(ctx) }()
	assert.Eventually(t, func() bool { return len(p.queue) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Submit(saveUserCommand(models.UserProfile{Id: "u1", HimCoins: 480})))
	close(release)

	require.NoError(t, <-retryDone)
	assert.Equal(t, []int64{490, 480}, saved.all())
	assert.Empty(t, p.FailedKeys())
}
