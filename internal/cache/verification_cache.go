package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerificationCache remembers emails whose password-reset code was confirmed
type VerificationCache interface {
	MarkResetVerified(ctx context.Context, email string, ttl time.Duration) error
	ConsumeResetVerified(ctx context.Context, email string) (bool, error)
}

type verificationCache struct {
	client *redis.Client
}

func NewVerificationCache(client *redis.Client) VerificationCache {
	return &verificationCache{client: client}
}

func (c *verificationCache) key(email string) string {
	return "reset:verified:" + strings.ToLower(email)
}

func (c *verificationCache) MarkResetVerified(ctx context.Context, email string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(email), time.Now().Unix(), ttl).Err()
}

// ConsumeResetVerified reports whether the flag was present and removes it.
func (c *verificationCache) ConsumeResetVerified(ctx context.Context, email string) (bool, error) {
	n, err := c.client.Del(ctx, c.key(email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
