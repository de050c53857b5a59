package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nusantara-hq/gapura/internal/shared"
)

const throttleKeyPrefix = "auth:throttle:"

// LoginThrottle counts failed login attempts per identifier and client IP
// in redis with an explicit TTL, so the limit holds across restarts and
// multiple instances.
type LoginThrottle struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewLoginThrottle constructs a LoginThrottle.
func NewLoginThrottle(client *redis.Client, limit int64, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, limit: limit, window: window}
}

// Check returns shared.ErrThrottled once the counter for the key is over
// the limit. A redis failure does not block login; availability wins for
// the throttle, unlike token verification.
func (t *LoginThrottle) Check(ctx context.Context, identifier, ip string) error {
	count, err := t.client.Get(ctx, t.key(identifier, ip)).Int64()
	if err != nil {
		return nil
	}
	if count >= t.limit {
		return fmt.Errorf("%w: login for %q", shared.ErrThrottled, identifier)
	}
	return nil
}

// RecordFailure bumps the counter and arms the TTL on first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, identifier, ip string) {
	key := t.key(identifier, ip)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if count == 1 {
		t.client.Expire(ctx, key, t.window)
	}
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, identifier, ip string) {
	t.client.Del(ctx, t.key(identifier, ip))
}

func (t *LoginThrottle) key(identifier, ip string) string {
	return throttleKeyPrefix + strings.ToLower(strings.TrimSpace(identifier)) + ":" + ip
}
