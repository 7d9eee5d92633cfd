package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps the currently valid refresh token for each user in
// redis under `refresh_token:<userID>` with a TTL matching the refresh
// token's validity window.
//
// The store holds at most one live refresh token per user identity: a new
// login or signup overwrites the prior entry, which invalidates every
// previously issued refresh token for that user (single active session
// policy). Store unavailability is returned to the caller rather than
// swallowed — losing this record must fail closed, since a missing entry
// denies all subsequent refresh attempts.
type TokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTokenStore builds a store whose entries expire after ttlDays days.
func NewTokenStore(rdb *redis.Client, ttlDays int) *TokenStore {
	return &TokenStore{rdb: rdb, ttl: time.Duration(ttlDays) * 24 * time.Hour}
}

func key(userID uint64) string { return fmt.Sprintf("refresh_token:%d", userID) }

// Put upserts the user's refresh token, resetting the TTL and replacing
// any prior value.
func (s *TokenStore) Put(ctx context.Context, userID uint64, token string) error {
	return s.rdb.Set(ctx, key(userID), token, s.ttl).Err()
}

// Get returns the stored refresh token for a user, or ErrNotFound when no
// entry exists (prior logout, overwrite, or TTL eviction).
func (s *TokenStore) Get(ctx context.Context, userID uint64) (string, error) {
	v, err := s.rdb.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

// Delete removes the user's entry. Deleting an absent entry is not an
// error, which keeps logout idempotent.
func (s *TokenStore) Delete(ctx context.Context, userID uint64) error {
	return s.rdb.Del(ctx, key(userID)).Err()
}
