// Package ratelimit guards the isochrone query endpoint with a
// per-client-IP, per-second Redis counter. Adapted from the teacher's
// internal/middleware/ratelimit.go, stripped of its partner/tier
// concept -- this system has no tenant or authentication model, so a
// single global tier per remote address is the whole policy.
package ratelimit

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Middleware returns a fiber.Handler enforcing perSecond requests per
// client IP. A nil client disables rate limiting entirely, so the
// server still runs when Redis is unavailable.
func Middleware(client *redis.Client, perSecond int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || perSecond <= 0 {
			return c.Next()
		}

		ctx := c.Context()
		now := time.Now()
		key := fmt.Sprintf("rl:ip:%s:%d", c.IP(), now.Unix())

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			// Redis trouble degrades to "allow the request" rather
			// than blocking traffic on a cache outage.
			return c.Next()
		}
		client.Expire(ctx, key, 2*time.Second)

		if count > int64(perSecond) {
			c.Set("X-RateLimit-Limit", strconv.Itoa(perSecond))
			c.Set("Retry-After", "1")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limit_exceeded",
				"message": "too many requests per second",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(perSecond))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(int64(perSecond)-count, 10))
		return c.Next()
	}
}
