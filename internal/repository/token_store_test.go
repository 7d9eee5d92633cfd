package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestTokenStorePutGetDelete(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewTokenStore(rdb, 7)
	ctx := context.Background()

	_, err := store.Get(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, 1, "token-a"))
	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "token-a", got)

	require.NoError(t, store.Delete(ctx, 1))
	_, err = store.Get(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent entry stays a success (logout idempotence).
	require.NoError(t, store.Delete(ctx, 1))
}

func TestTokenStoreOverwrite(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewTokenStore(rdb, 7)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "first-session"))
	require.NoError(t, store.Put(ctx, 1, "second-session"))

	// One live value per user: the first session's token is gone.
	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "second-session", got)
}

func TestTokenStoreTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewTokenStore(rdb, 7)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "token-a"))
	require.Equal(t, 7*24*time.Hour, mr.TTL("refresh_token:1"))

	mr.FastForward(7*24*time.Hour + time.Second)
	_, err := store.Get(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTokenStoreFailsClosedWhenUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewTokenStore(rdb, 7)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, "token-a"))
	mr.Close()

	// Cache outage surfaces as an error, never as a silent miss.
	require.Error(t, store.Put(ctx, 1, "token-b"))
	_, err := store.Get(ctx, 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
