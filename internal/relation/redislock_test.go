package relation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/config"
	"alcyxob/fitness-content/internal/domain"
)

func TestRedisLockerUnreachable(t *testing.T) {
	rdb := NewRedis(config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	locker := NewRedisLocker(rdb, time.Second, nil)

	t.Run("fails fast", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		unlock, err := locker.Lock(ctx, LockKey(domain.CategoryWorkouts, 1))
		require.Error(t, err)
		assert.Nil(t, unlock)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.NoError(t, ctx.Err(), "gave up before the caller's deadline")
	})

	t.Run("deadline while dialing", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		_, err := locker.Lock(ctx, LockKey(domain.CategoryWorkouts, 1))
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := locker.Lock(ctx, LockKey(domain.CategoryWorkouts, 1))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// The remaining tests need a reachable Redis; set REDIS_ADDR to run them.
func newTestRedisLocker(t *testing.T) *RedisLocker {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := NewRedis(config.RedisConfig{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewRedisLocker(rdb, time.Second, nil)
}

func TestRedisLockerExclusive(t *testing.T) {
	l := newTestRedisLocker(t)
	ctx := context.Background()
	key := "test:" + t.Name()

	unlock, err := l.Lock(ctx, key)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	unlock2, err := l.Lock(ctx, key)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerLeaseExpires(t *testing.T) {
	l := newTestRedisLocker(t)
	l.ttl = 50 * time.Millisecond
	ctx := context.Background()
	key := "test:" + t.Name()

	_, err := l.Lock(ctx, key) // never released
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlock, err := l.Lock(waitCtx, key)
	require.NoError(t, err)
	unlock()
}
