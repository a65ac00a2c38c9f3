//go:build redis

package distributed

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("VIDSHARE_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestLock_SingleHolder(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first := NewLock(client, "lock:seed", time.Minute)
	second := NewLock(client, "lock:seed", time.Minute)

	ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, second.Release(ctx), ErrNotHeld)
	require.NoError(t, first.Release(ctx))

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_AcquireTimesOut(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	holder := NewLock(client, "lock:busy", time.Minute)
	require.NoError(t, holder.Acquire(ctx, 0))

	err := NewLock(client, "lock:busy", time.Minute).Acquire(ctx, 250*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestWithLock_ReleasesAfterRun(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	ran := false
	err := WithLock(ctx, client, "lock:run", time.Minute, time.Second, func(ctx context.Context) error {
		ran = true
		exists, err := client.Exists(ctx, "lock:run").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	exists, err := client.Exists(ctx, "lock:run").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
