//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisStore(t *testing.T) *RedisIdempotencyStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: endpoint})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisIdempotencyStore(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()

	_, found, err := store.Lookup(ctx, "pl-1-line-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Remember(ctx, "pl-1-line-1", first, time.Hour))
	require.NoError(t, store.Remember(ctx, "pl-1-line-1", second, time.Hour))

	got, found, err := store.Lookup(ctx, "pl-1-line-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, got, "first writer wins")

	ttl, err := store.client.TTL(ctx, DefaultKeyPrefix+"pl-1-line-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Forget(ctx, "pl-1-line-1"))
	_, found, err = store.Lookup(ctx, "pl-1-line-1")
	require.NoError(t, err)
	assert.False(t, found)
}
