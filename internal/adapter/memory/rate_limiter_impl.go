package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterImpl is an in-process token bucket per key, used when no Redis
// is configured. Keys idle long enough for their bucket to refill are
// evicted, since a fresh bucket behaves the same.
type RateLimiterImpl struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per minute per key, with bursts
// up to perMinute.
func NewRateLimiter(perMinute int) *RateLimiterImpl {
	return &RateLimiterImpl{
		limiters: make(map[string]*clientLimiter),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idleTTL:  time.Minute,
		now:      time.Now,
	}
}

func (r *RateLimiterImpl) Allow(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	entry, ok := r.limiters[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(r.every, r.burst)}
		r.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), nil
}

// sweep drops idle keys at most once per idleTTL. Caller holds mu.
func (r *RateLimiterImpl) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.idleTTL {
		return
	}
	for key, entry := range r.limiters {
		if now.Sub(entry.lastSeen) >= r.idleTTL {
			delete(r.limiters, key)
		}
	}
	r.lastSweep = now
}

// Len reports how many keys are currently tracked.
func (r *RateLimiterImpl) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}
