package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRefreshRevoked indicates an unknown, expired or already-used refresh
// credential.
var ErrRefreshRevoked = errors.New("auth: refresh token revoked")

const refreshKeyPrefix = "auth:refresh:"

// RefreshStore keeps opaque refresh tokens in redis with a TTL. Redis is
// the shared store here so revocation survives process restarts and holds
// across instances; nothing is kept in process memory.
type RefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshStore constructs a RefreshStore.
func NewRefreshStore(client *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{client: client, ttl: ttl}
}

// Issue mints a new opaque refresh token for the user.
func (s *RefreshStore) Issue(ctx context.Context, userID int64) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, refreshKeyPrefix+id, strconv.FormatInt(userID, 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store refresh token: %w", err)
	}
	return id, nil
}

// Redeem consumes the refresh token and returns its user. Single use:
// redeeming deletes the key, so a replayed token fails with
// ErrRefreshRevoked.
func (s *RefreshStore) Redeem(ctx context.Context, id string) (int64, error) {
	value, err := s.client.GetDel(ctx, refreshKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrRefreshRevoked
		}
		return 0, fmt.Errorf("auth: redeem refresh token: %w", err)
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, ErrRefreshRevoked
	}
	return userID, nil
}

// Revoke drops the refresh token if it exists.
func (s *RefreshStore) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, refreshKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	return nil
}
