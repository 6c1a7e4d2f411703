package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fixed-window counter: KEYS[1] counter, ARGV[1] limit, ARGV[2] window seconds.
// Returns {allowed, current, limit, retry_after}.
const fixedWindowScript = `
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
local limit = tonumber(ARGV[1])
if current > limit then
  local ttl = redis.call('TTL', KEYS[1])
  if ttl < 0 then
    ttl = tonumber(ARGV[2])
  end
  return {0, current, limit, ttl}
end
return {1, current, limit, 0}
`

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the window resets (0 if allowed)
}

// Limiter counts requests per key in fixed windows
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// RedisLimiter keeps counters in Redis so several instances share them
type RedisLimiter struct {
	redis  *redis.Client
	script *redis.Script
	prefix string
	limit  int64
	window time.Duration
	logger Logger
}

// NewRedisLimiter creates a limiter allowing limit requests per window
func NewRedisLimiter(redisClient *redis.Client, prefix string, limit int64, window time.Duration, logger Logger) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		script: redis.NewScript(fixedWindowScript),
		prefix: prefix,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow counts one request against key
func (r *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	key = r.prefix + key
	windowSec := int64(r.window / time.Second)
	if windowSec < 1 {
		windowSec = 1
	}

	raw, err := r.script.Run(ctx, r.redis, []string{key}, r.limit, windowSec).Result()
	if err != nil {
		r.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	result, err := parseScriptResult(raw)
	if err != nil {
		return nil, err
	}

	if !result.Allowed {
		r.logger.Warn("rate limit exceeded",
			"key", key,
			"current", result.CurrentCount,
			"limit", result.Limit,
			"retry_after", result.RetryAfterSeconds)
	} else {
		r.logger.Debug("rate limit check passed", "key", key, "current", result.CurrentCount)
	}

	return result, nil
}

// Reset clears the counter for key
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.redis.Del(ctx, r.prefix+key).Err()
}

func parseScriptResult(raw interface{}) (*Result, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result format: %v", raw)
	}

	ints := make([]int64, len(values))
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected script result format: %v", raw)
		}
		ints[i] = n
	}

	return &Result{
		Allowed:           ints[0] == 1,
		CurrentCount:      ints[1],
		Limit:             ints[2],
		RetryAfterSeconds: ints[3],
	}, nil
}
