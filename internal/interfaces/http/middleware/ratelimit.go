package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stockflow/backend/internal/interfaces/http/dto"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// RateLimitConfig holds configuration for the rate limiter
type RateLimitConfig struct {
	Enabled  bool
	Requests int64
	Window   time.Duration
}

// DefaultRateLimitConfig returns default rate limiting configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:  true,
		Requests: 100,
		Window:   time.Minute,
	}
}

// RateLimitConfigFromApp maps the HTTP section onto a RateLimitConfig
func RateLimitConfigFromApp(cfg config.HTTPConfig) RateLimitConfig {
	out := DefaultRateLimitConfig()
	out.Enabled = cfg.RateLimitEnabled
	if cfg.RateLimitRequests > 0 {
		out.Requests = int64(cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow > 0 {
		out.Window = cfg.RateLimitWindow
	}
	return out
}

// NewLimiter builds an in-memory limiter keyed by client IP
func NewLimiter(cfg RateLimitConfig) *limiter.Limiter {
	rate := limiter.Rate{Period: cfg.Window, Limit: cfg.Requests}
	return limiter.New(memory.NewStore(), rate)
}

// RateLimit rejects clients that exceed the configured rate
func RateLimit(instance *limiter.Limiter, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		lctx, err := instance.Get(c.Request.Context(), ip)
		if err != nil {
			// A broken limiter store should not take the API down
			log.Error("Failed to get rate limit context", zap.String("ip", ip), zap.Error(err))
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			log.Warn("Rate limit exceeded",
				zap.String("ip", ip),
				zap.Int64("limit", lctx.Limit),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many requests, please try again later", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
