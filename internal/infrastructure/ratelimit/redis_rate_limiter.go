package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	// Limit is the request budget per window
	Limit int
	// Window is the fixed window length
	Window time.Duration
	// EnableLocalFallback serves requests from in-process buckets while Redis is down
	EnableLocalFallback bool
	// KeyPrefix is the Redis key prefix
	KeyPrefix string
	// MaxLocalKeys bounds the in-process buckets
	MaxLocalKeys int
	// Now overrides the clock of in-process buckets
	Now func() time.Time
}

// DefaultRateLimiterConfig returns default rate limiter configuration.
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Limit:               constants.DefaultRateLimitRequests,
		Window:              constants.DefaultRateLimitWindow,
		EnableLocalFallback: true,
		KeyPrefix:           "vincent:ratelimit",
		MaxLocalKeys:        DefaultMaxBuckets,
	}
}

func (c *RateLimiterConfig) bucketConfig() TokenBucketConfig {
	return TokenBucketConfig{
		Capacity: float64(c.Limit),
		Rate:     float64(c.Limit) / c.Window.Seconds(),
		Now:      c.Now,
	}
}

// fixedWindowScript counts a request and returns {count, ttl_ms}. The expiry is set
// only by the request that opens the window.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisRateLimiter is a fixed-window limiter shared by every instance through Redis.
type RedisRateLimiter struct {
	client       redis.UniversalClient
	logger       logger.Logger
	config       *RateLimiterConfig
	localBuckets *bucketSet
}

var _ service.RateLimitService = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter creates a new Redis-based rate limiter.
func NewRedisRateLimiter(client redis.UniversalClient, config *RateLimiterConfig, log logger.Logger) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, errors.ErrInvalidRequest("redis client is required")
	}
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	if config.Limit <= 0 || config.Window <= 0 {
		return nil, errors.ErrInvalidRequest("rate limit and window must be positive")
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}

	rl := &RedisRateLimiter{
		client: client,
		logger: log.WithComponent("RedisRateLimiter"),
		config: config,
	}
	if config.EnableLocalFallback {
		buckets, err := newBucketSet(config.bucketConfig(), config.MaxLocalKeys)
		if err != nil {
			return nil, err
		}
		rl.localBuckets = buckets
	}

	rl.logger.Info(context.Background(), "Redis rate limiter initialized",
		logger.Int("limit", config.Limit),
		logger.Duration("window", config.Window),
		logger.Bool("local_fallback", config.EnableLocalFallback),
	)
	return rl, nil
}

// Allow implements service.RateLimitService.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (*service.RateLimitResult, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.config.KeyPrefix, key)
	now := time.Now()

	res, err := fixedWindowScript.Run(ctx, rl.client, []string{redisKey}, rl.config.Window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		if err == nil {
			err = fmt.Errorf("unexpected script result %v", res)
		}
		if rl.localBuckets != nil {
			rl.logger.Warn(ctx, "Redis unavailable, using local rate limit buckets", logger.Error(err))
			return allowLocal(rl.localBuckets, key, rl.config.Limit, now), nil
		}
		rl.logger.Error(ctx, "Rate limit check failed", err, logger.String("key", key))
		return nil, errors.ErrCacheConnectionFailed(err.Error()).WithCause(err)
	}

	count, ttl := res[0], res[1]
	if ttl < 0 {
		ttl = rl.config.Window.Milliseconds()
	}
	remaining := int64(rl.config.Limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return &service.RateLimitResult{
		Allowed:   count <= int64(rl.config.Limit),
		Limit:     rl.config.Limit,
		Remaining: int(remaining),
		ResetAt:   now.Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}

// ResetLimit clears the window for key.
func (rl *RedisRateLimiter) ResetLimit(ctx context.Context, key string) error {
	if err := rl.client.Del(ctx, fmt.Sprintf("%s:%s", rl.config.KeyPrefix, key)).Err(); err != nil && err != redis.Nil {
		return errors.ErrCacheConnectionFailed(err.Error()).WithCause(err)
	}
	return nil
}

func allowLocal(buckets *bucketSet, key string, limit int, now time.Time) *service.RateLimitResult {
	allowed, left, wait := buckets.get(key).Take()
	return &service.RateLimitResult{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: left,
		ResetAt:   now.Add(wait),
	}
}

// MemoryRateLimiter keeps token buckets in process, for single-instance deployments.
type MemoryRateLimiter struct {
	buckets *bucketSet
	limit   int
	now     func() time.Time
}

var _ service.RateLimitService = (*MemoryRateLimiter)(nil)

// NewMemoryRateLimiter creates an in-process limiter allowing config.Limit requests per
// config.Window with a steady refill.
func NewMemoryRateLimiter(config *RateLimiterConfig) (*MemoryRateLimiter, error) {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	if config.Limit <= 0 || config.Window <= 0 {
		return nil, errors.ErrInvalidRequest("rate limit and window must be positive")
	}
	buckets, err := newBucketSet(config.bucketConfig(), config.MaxLocalKeys)
	if err != nil {
		return nil, err
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryRateLimiter{buckets: buckets, limit: config.Limit, now: now}, nil
}

// Allow implements service.RateLimitService.
func (m *MemoryRateLimiter) Allow(ctx context.Context, key string) (*service.RateLimitResult, error) {
	return allowLocal(m.buckets, key, m.limit, m.now()), nil
}

// Keys reports how many keys currently hold a bucket.
func (m *MemoryRateLimiter) Keys() int { return m.buckets.len() }
