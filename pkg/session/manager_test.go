package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/adapters/redis"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (s *SlowStore) Save(ctx context.Context, sess *domain.Session) error {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Save(ctx, sess)
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Save(ctx, domain.NewSession(id))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, store.overlap.Load(), "saves of the same session overlapped")
}

func TestManager_DistinctSessionsRunInParallel(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = manager.WithLock(ctx, id, func(context.Context) error {
				entered <- struct{}{}
				<-release
				return nil
			})
		}(id)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-entered:
		case <-time.After(time.Second):
			t.Fatal("distinct sessions blocked each other")
		}
	}
	close(release)
	wg.Wait()
}

func TestManager_LoadOrNew(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()

	s, err := manager.LoadOrNew(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, s.Status())
	assert.Equal(t, 0, store.Len(), "fresh session must not be persisted")

	_, err = manager.Load(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_PropagatesCallbackError(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	boom := errors.New("boom")
	err := manager.WithLock(context.Background(), "x", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := redis.New("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	locker := redis.NewLocker(store.Client(), "chatflow:", redis.WithRetryInterval(5*time.Millisecond))
	manager := session.NewManager(store,
		session.WithLocker(locker),
		session.WithLockTTL(time.Second),
	)
	ctx := context.Background()

	err = manager.WithLock(ctx, "dist", func(ctx context.Context) error {
		assert.Len(t, mr.Keys(), 1, "lock key should exist while held")
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, mr.Keys(), "lock key should be released")
}
