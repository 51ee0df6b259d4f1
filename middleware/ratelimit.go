package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/patient-console/config"
	"github.com/ariebrainware/patient-console/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultRateLimit  = 60
	defaultRateWindow = time.Minute
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// Redis overrides the shared client from config.GetRedisClient.
	Redis redis.Cmdable
	// Logger receives failed checks. Defaults to the logrus standard logger.
	Logger *logrus.Logger
}

func (cfg RateLimitConfig) client() redis.Cmdable {
	if cfg.Redis != nil {
		return cfg.Redis
	}
	if rdb := config.GetRedisClient(); rdb != nil {
		return rdb
	}
	return nil
}

// RateLimiter creates a rate limiting middleware keyed by path and client
// IP. Without Redis every request is allowed.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit == 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window == 0 {
		cfg.Window = defaultRateWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path
		key := rateLimitKey(clientIP, endpoint)

		allowed, err := checkRateLimit(c.Request.Context(), cfg.client(), key, cfg.Limit, cfg.Window)
		if err != nil {
			// If rate limiting fails, log the error but allow the request.
			cfg.Logger.WithError(err).WithField("client_ip", clientIP).Warn("Rate limit check failed")
			c.Next()
			return
		}

		if !allowed {
			sid, _ := GetSessionID(c)
			util.LogRateLimitExceeded(clientIP, sid, endpoint)
			util.CallTooManyRequests(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: errors.New("rate limit exceeded"),
			})
			return
		}

		c.Next()
	}
}

func rateLimitKey(clientIP, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
}

// checkRateLimit reports whether the request counted under key is within limit.
func checkRateLimit(ctx context.Context, rdb redis.Cmdable, key string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	pipe := rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return incrCmd.Val() <= int64(limit), nil
}
