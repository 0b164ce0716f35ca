package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venpus/mjshop-sub003/internal/infrastructure/config"
)

// fakeClock lets tests move time forward without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStoreWithClock(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(time.Hour)
	store.now = clock.Now
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_RememberAndLookup(t *testing.T) {
	store, _ := newStoreWithClock(t)
	ctx := context.Background()
	itemID := uuid.New()

	_, found, err := store.Lookup(ctx, "pl-1-line-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Remember(ctx, "pl-1-line-1", itemID, time.Hour))

	got, found, err := store.Lookup(ctx, "pl-1-line-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, itemID, got)
}

func TestInMemoryIdempotencyStore_FirstWriterWins(t *testing.T) {
	store, _ := newStoreWithClock(t)
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()

	require.NoError(t, store.Remember(ctx, "key", first, time.Hour))
	require.NoError(t, store.Remember(ctx, "key", second, time.Hour))

	got, _, err := store.Lookup(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store, clock := newStoreWithClock(t)
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()

	require.NoError(t, store.Remember(ctx, "key", first, time.Minute))
	clock.Advance(time.Minute)

	_, found, err := store.Lookup(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found, "expired key must not replay")

	require.NoError(t, store.Remember(ctx, "key", second, time.Minute))
	got, found, err := store.Lookup(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, second, got)
}

func TestInMemoryIdempotencyStore_Forget(t *testing.T) {
	store, _ := newStoreWithClock(t)
	ctx := context.Background()

	require.NoError(t, store.Remember(ctx, "key", uuid.New(), time.Hour))
	require.NoError(t, store.Forget(ctx, "key"))
	require.NoError(t, store.Forget(ctx, "never-set"))

	_, found, err := store.Lookup(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store, clock := newStoreWithClock(t)
	ctx := context.Background()

	require.NoError(t, store.Remember(ctx, "short-1", uuid.New(), time.Minute))
	require.NoError(t, store.Remember(ctx, "short-2", uuid.New(), time.Minute))
	require.NoError(t, store.Remember(ctx, "long", uuid.New(), time.Hour))
	assert.Equal(t, 3, store.Size())

	clock.Advance(2 * time.Minute)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	_, found, err := store.Lookup(ctx, "long")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store, _ := newStoreWithClock(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Remember(ctx, "shared", uuid.New(), time.Hour)
			_, _, _ = store.Lookup(ctx, "shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore(0)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("uses in-memory store when Redis is not configured", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("falls back when Redis is unreachable", func(t *testing.T) {
		cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}
		store, err := NewIdempotencyStoreFactory(cfg).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}
		_, err := NewIdempotencyStoreFactory(cfg, WithInMemoryFallback(false)).CreateStore(ctx)
		assert.Error(t, err)
	})
}
