package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-task-manager/pkg/metrics"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request
type KeyFunc func(c *gin.Context) string

// KeyByIP limits by client IP within a named scope.
func KeyByIP(scope string) KeyFunc {
	return func(c *gin.Context) string {
		return "rl:" + scope + ":ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath limits by client IP and route, so signup and login have separate budgets.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// hitScript counts one request in the current window and reports the
// window's remaining lifetime, all in a single round trip.
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

type AllowFunc func(*gin.Context) bool // return true for bypass limit

// Limit is one fixed-window budget.
type Limit struct {
	Scope  string
	Max    int
	Window time.Duration
	Key    KeyFunc
}

// hit returns the request count in the window and the seconds until it resets.
func hit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (count, resetSec int, err error) {
	res, err := hitScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	count = toInt(res[0])
	if ttl := toInt(res[1]); ttl > 0 {
		resetSec = (ttl + 999) / 1000
	}
	return count, resetSec, nil
}

func setLimitHeaders(c *gin.Context, limit, count, resetSec int) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining(limit, count)))
	c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}

// RateLimit enforces l with a Redis counter. A nil client disables it and
// Redis errors let the request through.
func RateLimit(rdb *redis.Client, l Limit, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || l.Max <= 0 || l.Window <= 0 || l.Key == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if (allow != nil && allow(c)) || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		count, resetSec, err := hit(c.Request.Context(), rdb, l.Key(c), l.Window)
		if err != nil {
			c.Next()
			return
		}
		setLimitHeaders(c, l.Max, count, resetSec)
		if count > l.Max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			metrics.Get().RateLimitedTotal.WithLabelValues(l.Scope).Inc()
			response.Error(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}

func toInt(v any) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}
