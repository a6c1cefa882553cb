// Package credential implements the token blacklist, OTP issuance and
// verification, rate limiting and server-side sessions, all backed by a
// Redis key-value store with per-key expiry. No state is held in process
// between requests.
package credential

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

// DefaultBlacklistTTL caps how long a revoked token stays on record when the
// caller cannot determine the token's remaining validity.
const DefaultBlacklistTTL = 24 * time.Hour

// TokenBlacklist records revoked tokens until their TTL lapses. Existence of
// a marker means permanent rejection of that exact token string.
type TokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist constructs a TokenBlacklist on the given Redis client.
func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Add marks a token as revoked. Re-adding the same token resets its TTL.
func (b *TokenBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultBlacklistTTL
	}
	return b.client.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
}

// Contains reports whether the token has an unexpired revocation marker.
func (b *TokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
