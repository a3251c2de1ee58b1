package repository

import "context"

// RateLimiter decides whether a caller identified by key may make another request.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
