package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimit is one fixed-window budget. Name keeps the counters of different
// rules apart in Redis.
type RateLimit struct {
	Name   string
	Limit  int
	Window time.Duration
}

// ClientKey identifies the caller: the signed-in user when known, otherwise
// the client IP.
func ClientKey(c *fiber.Ctx) string {
	if id := GetUserID(c); id != uuid.Nil {
		return "u:" + id.String()
	}
	return "ip:" + c.IP()
}

// RateLimitMiddleware counts requests per rule, path and client. Redis
// failures let the request through.
func RateLimitMiddleware(rdb redis.Cmdable, rule RateLimit, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rule.Limit <= 0 {
			return c.Next()
		}
		key := fmt.Sprintf("rl:%s:%s:%s", rule.Name, c.Path(), ClientKey(c))

		ctx := c.UserContext()
		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, rule.Window)
			return nil
		})
		if err != nil {
			log.Debug("rate limit check failed", zap.String("rule", rule.Name), zap.Error(err))
			return c.Next()
		}

		count := incr.Val()
		remaining := max(int64(rule.Limit)-count, 0)
		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rule.Limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(rule.Window.Seconds())))
			return deny(c, fiber.StatusTooManyRequests, "rate limit exceeded", "")
		}
		return c.Next()
	}
}
