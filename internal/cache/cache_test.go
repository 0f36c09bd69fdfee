package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, "test", zerolog.Nop())
}

func TestRedisCache_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestRedisCache(t)

	require.NoError(t, c.Set(ctx, "foo", []byte("bar"), time.Minute))
	got, err := c.Get(ctx, "foo")
	require.NoError(t, err)
	require.Equal(t, []byte("bar"), got)
}

func TestRedisCache_MissReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	c := newTestRedisCache(t)

	got, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisCache_ErrorDegradesInsteadOfFailing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, "test", zerolog.Nop())
	mr.Close()

	got, err := c.Get(context.Background(), "anything")
	require.NoError(t, err, "a cache read error must fall through, not propagate")
	require.Nil(t, got)
}

func TestRedisCache_SetMembership(t *testing.T) {
	ctx := context.Background()
	c := newTestRedisCache(t)

	require.NoError(t, c.SAdd(ctx, "children:Q5", "Q515", "Q1549591"))
	ok, err := c.SIsMember(ctx, "children:Q5", "Q515")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.SIsMember(ctx, "children:Q5", "Q42")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetSetJSON(t *testing.T) {
	ctx := context.Background()
	c := newTestRedisCache(t)

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, c, "p", payload{Name: "Adams"}, time.Minute))

	var out payload
	found, err := GetJSON(ctx, c, "p", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Adams", out.Name)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(time.Millisecond)
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, got)
}
