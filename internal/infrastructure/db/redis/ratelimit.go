package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter backed by Redis.
// Key format: ratelimit:<key>, expiring with the window.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int
}

func NewRateLimiter(client *redis.Client, window time.Duration, limit int) *RateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if limit <= 0 {
		limit = 10
	}
	return &RateLimiter{client: client, window: window, limit: limit}
}

// Allow increments the key's counter and reports whether it is still
// within budget. When the budget is spent, the remaining window duration
// is returned as the retry-after hint.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := "ratelimit:" + key

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	if count <= int64(r.limit) {
		return true, 0, nil
	}

	ttl, err := r.client.TTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		ttl = r.window
	}
	return false, ttl, nil
}
