package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return mr, client
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, Config{Limit: 3, Window: time.Minute})
	ctx := context.Background()

	for i := range 3 {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok, "fourth request should be limited")

	ok, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "other keys have their own budget")

	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"10.0.0.1"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "budget resets when the window expires")
}

func TestRedisLimiter_CounterAlwaysExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, Config{Limit: 5, Window: time.Minute})
	ctx := context.Background()
	key := keyPrefix + "10.0.0.3"

	mr.SetError("READONLY replica")
	_, err := l.Allow(ctx, "10.0.0.3")
	require.ErrorIs(t, err, ErrRedisUnavailable)
	mr.SetError("")
	assert.False(t, mr.Exists(key), "a failed hit leaves no counter behind")

	_, err = l.Allow(ctx, "10.0.0.3")
	require.NoError(t, err)
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(30 * time.Second)
	_, err = l.Allow(ctx, "10.0.0.3")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL(key), "later hits do not extend the window")
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, Config{Limit: 1, Window: time.Minute})
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
	assert.ErrorIs(t, l.Ping(context.Background()), ErrRedisUnavailable)
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter(Config{Limit: 2, Window: time.Minute})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for range 2 {
		ok, _ := l.Allow(ctx, "ip") //nolint:errcheck // never fails
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "ip") //nolint:errcheck // never fails
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, _ = l.Allow(ctx, "ip") //nolint:errcheck // never fails
	assert.True(t, ok)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	l := NewMemoryLimiter(Config{Limit: 5, Window: time.Minute})
	now := time.Now()
	l.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		l.Allow(context.Background(), k) //nolint:errcheck // never fails
	}
	assert.Equal(t, 3, l.Len())

	now = now.Add(2 * time.Minute)
	l.sweep()
	assert.Zero(t, l.Len())
}

func TestMemoryLimiter_Disabled(t *testing.T) {
	l := NewMemoryLimiter(Config{})
	for range 100 {
		ok, err := l.Allow(context.Background(), "ip")
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Zero(t, l.Len())
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, ErrRedisUnavailable
}

func TestFallback(t *testing.T) {
	secondary := NewMemoryLimiter(Config{Limit: 1, Window: time.Minute})
	f := &Fallback{Primary: failingLimiter{}, Secondary: secondary}
	ctx := context.Background()

	require.NoError(t, Check(ctx, f, "ip"))
	err := Check(ctx, f, "ip")
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestFallback_PrimaryHealthy(t *testing.T) {
	_, client := newTestRedis(t)
	primary := NewRedisLimiter(client, Config{Limit: 1, Window: time.Minute})
	f := &Fallback{Primary: primary, Secondary: NewMemoryLimiter(Config{Limit: 100, Window: time.Minute})}

	require.NoError(t, Check(context.Background(), f, "ip"))
	assert.ErrorIs(t, Check(context.Background(), f, "ip"), ErrRateLimited)
}
