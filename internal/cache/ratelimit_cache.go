package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitResult describes the state of a fixed window after a hit.
type RateLimitResult struct {
	Allowed    bool
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimitCache counts requests per (endpoint, ip) in fixed windows
type RateLimitCache interface {
	Hit(ctx context.Context, endpoint, ip string, limit int, window time.Duration) (RateLimitResult, error)
}

type rateLimitCache struct {
	client *redis.Client
}

func NewRateLimitCache(client *redis.Client) RateLimitCache {
	return &rateLimitCache{client: client}
}

func (c *rateLimitCache) key(endpoint, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, ip)
}

func (c *rateLimitCache) Hit(ctx context.Context, endpoint, ip string, limit int, window time.Duration) (RateLimitResult, error) {
	key := c.key(endpoint, ip)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return RateLimitResult{}, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return RateLimitResult{}, err
		}
	}

	res := RateLimitResult{
		Allowed:   count <= int64(limit),
		Count:     count,
		Remaining: int64(limit) - count,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter, _ = c.client.TTL(ctx, key).Result()
		if res.RetryAfter <= 0 {
			res.RetryAfter = window
		}
	}
	return res, nil
}
