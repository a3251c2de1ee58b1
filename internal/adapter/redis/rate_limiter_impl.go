package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/price-service/pkg/utils"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiterImpl provides a fixed-window RateLimiter shared by every
// instance that talks to the same Redis.
type RateLimiterImpl struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window and key.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiterImpl {
	return &RateLimiterImpl{client: client, limit: int64(limit), window: window, now: time.Now}
}

// generateKey hashes the caller key and appends the current window index.
func (r *RateLimiterImpl) generateKey(key string) string {
	bucket := r.now().UnixNano() / int64(r.window)
	return fmt.Sprintf("%s%s:%d", rateLimitPrefix, utils.HashURL(key), bucket)
}

// Allow counts the request in the current window. INCR and EXPIRE run in one
// pipeline so a key never outlives its window.
func (r *RateLimiterImpl) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := r.generateKey(key)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= r.limit, nil
}
