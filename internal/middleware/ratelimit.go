// Package middleware holds the fiber middleware for authentication and
// per-user rate limiting.
package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/pkg/response"
)

// Counter is the part of a Redis client the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimiter is a fixed-window counter per user and route group.
type RateLimiter struct {
	redis  Counter
	logger *zap.Logger
}

func NewRateLimiter(redisClient Counter, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{redis: redisClient, logger: logging.WithComponent(logger, "ratelimit")}
}

// Limit creates a rate limiting middleware
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" || maxRequests <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, userID)
		ctx := c.UserContext()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// fail open
			rl.logger.Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
			return c.Next()
		}

		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			return response.RateLimited(c, ttl)
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(maxRequests-int(count)))

		return c.Next()
	}
}

// EditLimit limits edit job submissions per hour.
func (rl *RateLimiter) EditLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("edit", maxPerHour, time.Hour)
}

// IndexLimit limits index and collection job submissions per hour.
func (rl *RateLimiter) IndexLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("index", maxPerHour, time.Hour)
}

// UploadLimit returns a rate limiter for upload endpoints (50 req/hour)
func (rl *RateLimiter) UploadLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("upload", maxPerHour, time.Hour)
}

// SearchLimit limits synchronous searches per minute.
func (rl *RateLimiter) SearchLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("search", maxPerMin, time.Minute)
}
