package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-engine/internal/cache"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/repository/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ domain.Cache = (*MockCache)(nil)

// stubStore is a SessionStore whose behavior is set per test.
type stubStore struct {
	SaveFunc func(ctx context.Context, s *domain.QuizSession) error
	LoadFunc func(ctx context.Context, id string) (*domain.QuizSession, error)
}

func (s *stubStore) Save(ctx context.Context, session *domain.QuizSession) error {
	return s.SaveFunc(ctx, session)
}

func (s *stubStore) Load(ctx context.Context, id string) (*domain.QuizSession, error) {
	return s.LoadFunc(ctx, id)
}

const cacheTTL = time.Hour

func encodedSession(t *testing.T, s *domain.QuizSession) string {
	t.Helper()
	payload, err := json.Marshal(models.FromDomainSession(s))
	require.NoError(t, err)
	return string(payload)
}

func TestCachedSessionStore_LoadHit(t *testing.T) {
	session := sampleSession("s1")
	mc := new(MockCache)
	mc.On("Get", mock.Anything, cache.SessionKey("s1")).Return(encodedSession(t, session), nil)
	store := &stubStore{LoadFunc: func(context.Context, string) (*domain.QuizSession, error) {
		t.Fatal("store must not be read on a cache hit")
		return nil, nil
	}}

	cs := NewCachedSessionStore(store, mc, cacheTTL)
	loaded, err := cs.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, session, loaded)
	mc.AssertExpectations(t)
}

func TestCachedSessionStore_LoadMissPopulatesCache(t *testing.T) {
	session := sampleSession("s1")
	mc := new(MockCache)
	mc.On("Get", mock.Anything, cache.SessionKey("s1")).Return("", domain.ErrCacheMiss)
	mc.On("SetNX", mock.Anything, cache.SessionKey("s1"), encodedSession(t, session), cacheTTL).Return(true, nil)
	store := &stubStore{LoadFunc: func(context.Context, string) (*domain.QuizSession, error) {
		return sampleSession("s1"), nil
	}}

	cs := NewCachedSessionStore(store, mc, cacheTTL)
	loaded, err := cs.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, session, loaded)
	mc.AssertExpectations(t)
}

func TestCachedSessionStore_LoadCacheDown(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return("", errors.New("redis: connection refused"))
	mc.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis: connection refused"))
	store := &stubStore{LoadFunc: func(context.Context, string) (*domain.QuizSession, error) {
		return sampleSession("s1"), nil
	}}

	cs := NewCachedSessionStore(store, mc, cacheTTL)
	loaded, err := cs.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", loaded.ID)
}

func TestCachedSessionStore_LoadNotFound(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return("", domain.ErrCacheMiss)
	store := &stubStore{LoadFunc: func(context.Context, string) (*domain.QuizSession, error) {
		return nil, domain.ErrSessionRecordNotFound
	}}

	cs := NewCachedSessionStore(store, mc, cacheTTL)
	_, err := cs.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionRecordNotFound)
	mc.AssertNotCalled(t, "SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedSessionStore_LoadUndecodableEntryIsDropped(t *testing.T) {
	session := sampleSession("s1")
	mc := new(MockCache)
	mc.On("Get", mock.Anything, cache.SessionKey("s1")).Return("{not json", nil)
	mc.On("Delete", mock.Anything, cache.SessionKey("s1")).Return(nil).Once()
	mc.On("SetNX", mock.Anything, cache.SessionKey("s1"), encodedSession(t, session), cacheTTL).Return(true, nil)
	store := &stubStore{LoadFunc: func(context.Context, string) (*domain.QuizSession, error) {
		return sampleSession("s1"), nil
	}}

	loaded, err := NewCachedSessionStore(store, mc, cacheTTL).Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, session, loaded)
	mc.AssertExpectations(t)
}

func TestCachedSessionStore_Save(t *testing.T) {
	session := sampleSession("s1")

	t.Run("RefreshesCache", func(t *testing.T) {
		mc := new(MockCache)
		mc.On("Set", mock.Anything, cache.SessionKey("s1"), encodedSession(t, session), cacheTTL).Return(nil)
		saved := 0
		store := &stubStore{SaveFunc: func(context.Context, *domain.QuizSession) error { saved++; return nil }}

		require.NoError(t, NewCachedSessionStore(store, mc, cacheTTL).Save(context.Background(), session))
		assert.Equal(t, 1, saved)
		mc.AssertExpectations(t)
	})

	t.Run("CacheFailureDropsEntry", func(t *testing.T) {
		mc := new(MockCache)
		mc.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))
		mc.On("Delete", mock.Anything, cache.SessionKey("s1")).Return(nil)
		store := &stubStore{SaveFunc: func(context.Context, *domain.QuizSession) error { return nil }}

		require.NoError(t, NewCachedSessionStore(store, mc, cacheTTL).Save(context.Background(), session))
		mc.AssertExpectations(t)
	})

	t.Run("StoreFailureSkipsCache", func(t *testing.T) {
		mc := new(MockCache)
		diskErr := errors.New("disk full")
		store := &stubStore{SaveFunc: func(context.Context, *domain.QuizSession) error { return diskErr }}

		err := NewCachedSessionStore(store, mc, cacheTTL).Save(context.Background(), session)
		assert.ErrorIs(t, err, diskErr)
		mc.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCachedSessionStore_ConcurrentMissesAreCoalesced(t *testing.T) {
	mc := new(MockCache)
	mc.On("Get", mock.Anything, mock.Anything).Return("", domain.ErrCacheMiss)
	mc.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	var loads atomic.Int32
	release := make(chan struct{})
	store := &stubStore{LoadFunc: func(context.Context, string) (*domain.QuizSession, error) {
		loads.Add(1)
		<-release
		return sampleSession("s1"), nil
	}}
	cs := NewCachedSessionStore(store, mc, cacheTTL)

	const callers = 8
	var started, done sync.WaitGroup
	results := make([]*domain.QuizSession, callers)
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			s, err := cs.Load(context.Background(), "s1")
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for i := 1; i < callers; i++ {
		require.NotNil(t, results[i])
		assert.NotSame(t, results[0], results[i], "callers get independent copies")
		assert.Equal(t, results[0], results[i])
	}
}

// memCache is an in-memory domain.Cache with Redis semantics for Set and SetNX.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCache() *memCache { return &memCache{entries: make(map[string]string)} }

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false, nil
	}
	c.entries[key] = value
	return true, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }

func TestCachedSessionStore_MissFillDoesNotOverwriteNewerSave(t *testing.T) {
	older := sampleSession("s1")
	older.CurrentIndex = 1
	newer := sampleSession("s1")
	newer.CurrentIndex = 2

	entered := make(chan struct{})
	release := make(chan struct{})
	store := &stubStore{
		// the store read returns the record as it was before the concurrent Save
		LoadFunc: func(context.Context, string) (*domain.QuizSession, error) {
			close(entered)
			<-release
			return older, nil
		},
		SaveFunc: func(context.Context, *domain.QuizSession) error { return nil },
	}
	cs := NewCachedSessionStore(store, newMemCache(), cacheTTL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		loaded, err := cs.Load(context.Background(), "s1")
		assert.NoError(t, err)
		assert.Equal(t, 1, loaded.CurrentIndex)
	}()

	<-entered
	require.NoError(t, cs.Save(context.Background(), newer))
	close(release)
	<-done

	store.LoadFunc = func(context.Context, string) (*domain.QuizSession, error) {
		t.Fatal("expected a cache hit")
		return nil, nil
	}
	loaded, err := cs.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.CurrentIndex, "the cache keeps the newer save")
}

func TestCachedSessionStore_SharedLoadIgnoresCallerCancellation(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var loadCtxErr error
	store := &stubStore{LoadFunc: func(ctx context.Context, _ string) (*domain.QuizSession, error) {
		close(entered)
		<-release
		loadCtxErr = ctx.Err()
		if loadCtxErr != nil {
			return nil, loadCtxErr
		}
		return sampleSession("s1"), nil
	}}
	cs := NewCachedSessionStore(store, newMemCache(), cacheTTL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cs.Load(ctx, "s1")
		done <- err
	}()

	<-entered
	cancel()
	close(release)

	assert.NoError(t, <-done)
	assert.NoError(t, loadCtxErr)
}
