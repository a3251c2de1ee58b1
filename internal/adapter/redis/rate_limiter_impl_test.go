package redis

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterHook answers INCR and EXPIRE from memory so pipelines never reach
// the network.
type counterHook struct {
	mu       sync.Mutex
	counters map[string]int64
	expiries map[string]int64
	err      error
}

func newCounterHook() *counterHook {
	return &counterHook{counters: make(map[string]int64), expiries: make(map[string]int64)}
}

func (h *counterHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial not expected")
	}
}

func (h *counterHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return h.apply([]redis.Cmder{cmd})
	}
}

func (h *counterHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return h.apply(cmds)
	}
}

func (h *counterHook) apply(cmds []redis.Cmder) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	for _, cmd := range cmds {
		args := cmd.Args()
		switch strings.ToLower(cmd.Name()) {
		case "incr":
			key := args[1].(string)
			h.counters[key]++
			cmd.(*redis.IntCmd).SetVal(h.counters[key])
		case "expire":
			h.expiries[args[1].(string)] = args[2].(int64)
			cmd.(*redis.BoolCmd).SetVal(true)
		}
	}
	return nil
}

func newTestLimiter(t *testing.T, limit int) (*RateLimiterImpl, *counterHook, *time.Time) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })
	hook := newCounterHook()
	client.AddHook(hook)

	limiter := NewRateLimiter(client, limit, time.Minute)
	clock := time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	return limiter, hook, &clock
}

func TestRateLimiterImpl_GenerateKey(t *testing.T) {
	limiter, _, clock := newTestLimiter(t, 5)
	fixed := *clock

	k1 := limiter.generateKey("10.0.0.1")
	assert.True(t, strings.HasPrefix(k1, rateLimitPrefix))
	assert.Equal(t, k1, limiter.generateKey("10.0.0.1"))
	assert.NotEqual(t, k1, limiter.generateKey("10.0.0.2"))

	*clock = fixed.Add(20 * time.Second)
	assert.Equal(t, k1, limiter.generateKey("10.0.0.1"), "same window")

	*clock = fixed.Add(40 * time.Second)
	assert.NotEqual(t, k1, limiter.generateKey("10.0.0.1"), "next window")
}

func TestRateLimiterImpl_AllowCountsWithinWindow(t *testing.T) {
	limiter, hook, clock := newTestLimiter(t, 2)
	ctx := context.Background()

	var got []bool
	for range 3 {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		got = append(got, ok)
	}
	assert.Equal(t, []bool{true, true, false}, got)

	ok, err := limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "other clients have their own counter")

	key := limiter.generateKey("10.0.0.1")
	assert.Equal(t, int64(3), hook.counters[key])
	assert.Equal(t, int64(60), hook.expiries[key], "counter expires with its window")

	*clock = clock.Add(time.Minute)
	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "new window resets the count")
}

func TestRateLimiterImpl_AllowReportsRedisErrors(t *testing.T) {
	limiter, hook, _ := newTestLimiter(t, 2)
	hook.err = errors.New("READONLY")

	ok, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "rate limit counter")
}
