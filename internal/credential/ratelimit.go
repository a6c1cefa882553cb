package credential

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// incrWindow increments the counter and stamps the window expiry in one
// server-side step, so a counter can never exist without an expiry.
var incrWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RateLimiter counts events per key within a fixed window. It holds no
// threshold of its own; callers compare the returned count against their own
// limit.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter constructs a RateLimiter on the given Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Increment bumps the counter for key and returns the post-increment count.
// The first increment of a window establishes the window's expiry; once the
// window elapses the next increment starts a fresh one at 1.
func (l *RateLimiter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return incrWindow.Run(ctx, l.client, []string{rateLimitPrefix + key}, seconds).Int64()
}
