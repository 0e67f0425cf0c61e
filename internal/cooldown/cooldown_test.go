package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(clock)

	left, err := s.Remaining(ctx, "p1", "bash")
	require.NoError(t, err)
	assert.Zero(t, left)

	require.NoError(t, s.Set(ctx, "p1", "bash", 5*time.Second))

	clock.Advance(2 * time.Second)
	left, err = s.Remaining(ctx, "p1", "bash")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, left)

	other, err := s.Remaining(ctx, "p2", "bash")
	require.NoError(t, err)
	assert.Zero(t, other)

	clock.Advance(3 * time.Second)
	left, err = s.Remaining(ctx, "p1", "bash")
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestMemoryStore_ActiveAndClear(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(clock)

	require.NoError(t, s.Set(ctx, "p1", "bash", 5*time.Second))
	require.NoError(t, s.Set(ctx, "p1", "kick", time.Second))
	require.NoError(t, s.Set(ctx, "p1", "trip", 0))

	clock.Advance(2 * time.Second)
	active, err := s.Active(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, map[string]time.Duration{"bash": 3 * time.Second}, active)

	require.NoError(t, s.Clear(ctx, "p1"))
	active, err = s.Active(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:cd:"), mr
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	left, err := s.Remaining(ctx, "p1", "bash")
	require.NoError(t, err)
	assert.Zero(t, left)

	require.NoError(t, s.Set(ctx, "p1", "bash", 5*time.Second))
	assert.True(t, mr.Exists("test:cd:p1:bash"))

	left, err = s.Remaining(ctx, "p1", "bash")
	require.NoError(t, err)
	assert.Greater(t, left, time.Duration(0))
	assert.LessOrEqual(t, left, 5*time.Second)

	mr.FastForward(5 * time.Second)
	left, err = s.Remaining(ctx, "p1", "bash")
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestRedisStore_ActiveAndClear(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	require.NoError(t, s.Set(ctx, "p1", "bash", 5*time.Second))
	require.NoError(t, s.Set(ctx, "p1", "kick", 10*time.Second))
	require.NoError(t, s.Set(ctx, "p2", "bash", 5*time.Second))

	active, err := s.Active(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, active, 2)
	assert.Contains(t, active, "bash")
	assert.Contains(t, active, "kick")

	require.NoError(t, s.Set(ctx, "p1", "kick", 0))
	assert.False(t, mr.Exists("test:cd:p1:kick"))

	require.NoError(t, s.Clear(ctx, "p1"))
	assert.False(t, mr.Exists("test:cd:p1:bash"))
	assert.True(t, mr.Exists("test:cd:p2:bash"))
}
