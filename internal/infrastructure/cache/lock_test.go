package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRedisLock(t *testing.T) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	lock := NewRedisLockWithClient(client, "")
	t.Cleanup(func() { _ = lock.Close() })
	return lock, mr
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	lock, mr := newTestRedisLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "batch:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(defaultLockPrefix+"batch:1"))
	assert.Equal(t, time.Minute, mr.TTL(defaultLockPrefix+"batch:1"))

	ok, err = lock.Acquire(ctx, "batch:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held key cannot be taken twice")

	require.NoError(t, lock.Release(ctx, "batch:1"))
	assert.False(t, mr.Exists(defaultLockPrefix+"batch:1"))

	ok, err = lock.Acquire(ctx, "batch:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_SharedAcrossInstances(t *testing.T) {
	first, mr := newTestRedisLock(t)
	second := NewRedisLockWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = second.Close() })
	ctx := context.Background()

	ok, err := first.Acquire(ctx, "batch:2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx, "batch:2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx, "batch:2"))
	assert.True(t, mr.Exists(defaultLockPrefix+"batch:2"), "a non-holder release leaves the key")
}

func TestRedisLock_ReleaseAfterExpiryKeepsNewHolder(t *testing.T) {
	first, mr := newTestRedisLock(t)
	second := NewRedisLockWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = second.Close() })
	ctx := context.Background()

	ok, err := first.Acquire(ctx, "batch:3", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = second.Acquire(ctx, "batch:3", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Release(ctx, "batch:3"))
	assert.True(t, mr.Exists(defaultLockPrefix+"batch:3"))
}

func TestRedisLock_ConnectionError(t *testing.T) {
	lock, mr := newTestRedisLock(t)
	mr.Close()

	_, err := lock.Acquire(context.Background(), "batch:4", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire lock")
}

func TestInMemoryLock(t *testing.T) {
	lock := NewInMemoryLock()
	defer lock.Close()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lock.clock = func() time.Time { return now }

	ok, err := lock.Acquire(ctx, "batch:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "batch:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("expired lock can be retaken", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		ok, err := lock.Acquire(ctx, "batch:1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release frees the key", func(t *testing.T) {
		require.NoError(t, lock.Release(ctx, "batch:1"))
		assert.Equal(t, 0, lock.Size())
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := lock.Acquire(cancelled, "batch:2", time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLockFactory_CreateLock(t *testing.T) {
	unavailable := func(RedisConfig) (shared.DistributedLock, error) {
		return nil, errors.New("connection refused")
	}

	t.Run("falls back to in-memory with a warning", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		f := NewLockFactory(config.RedisConfig{Host: "localhost", Port: 6379}, WithLogger(zap.New(core)))
		f.connect = unavailable

		lock, err := f.CreateLock()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLock{}, lock)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewLockFactory(config.RedisConfig{}, WithInMemoryFallback(false))
		f.connect = unavailable

		_, err := f.CreateLock()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("uses Redis when reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		f := NewLockFactory(config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)})

		lock, err := f.CreateLock()
		require.NoError(t, err)
		defer lock.Close()
		assert.IsType(t, &RedisLock{}, lock)
	})
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
