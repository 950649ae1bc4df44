package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter is a fixed-window per-key limiter shared across instances.
// A nil limiter, or any Redis failure, fails open.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisLimiter(addr string) *RedisLimiter {
	if addr == "" {
		return nil
	}
	return &RedisLimiter{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		script: redis.NewScript(rateLimitScript),
	}
}

func (l *RedisLimiter) Allow(key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{key}, window.Milliseconds(), limit).Int64()
	if err != nil {
		return true
	}
	return allowed == 1
}

// RateLimitByIP throttles requests per client IP over a one-minute window.
func RateLimitByIP(limiter *RedisLimiter, limit int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}
			key := "ratelimit:" + c.RealIP()
			if !limiter.Allow(key, limit, time.Minute) {
				return c.NoContent(http.StatusTooManyRequests)
			}
			return next(c)
		}
	}
}
