package middleware

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"internship-backend/internal/shared/telemetry"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return redis.call("PTTL", KEYS[1])
end
return -1
`

// RedisLimiter shares a fixed-window budget across API replicas.
// A rule allows Burst requests per Burst/Rate seconds.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		prefix: "ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.client == nil {
		return true, 0
	}
	if key == "" || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	window := windowFor(rule)
	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	ttl, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, window.Milliseconds(), rule.Burst).Int64()
	if err != nil {
		// Fail open: a Redis outage must not take the API down.
		telemetry.Warn("ratelimit.redis_error", map[string]any{"error": err.Error()})
		return true, 0
	}
	if ttl < 0 {
		return true, 0
	}
	return false, time.Duration(ttl) * time.Millisecond
}

func windowFor(rule RateLimitRule) time.Duration {
	seconds := float64(rule.Burst) / rule.Rate
	ms := int64(math.Ceil(seconds * 1000))
	if ms <= 0 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}
