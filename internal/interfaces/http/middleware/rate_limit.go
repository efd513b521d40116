package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vincent/internal/application/dto"
	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

const (
	rateLimitScopePKP    = "pkp"
	rateLimitScopeClient = "client"
)

// RateLimitMiddleware creates a new rate limiting middleware. Authenticated requests are
// limited per PKP address, anonymous ones per client IP.
func RateLimitMiddleware(rateLimiter service.RateLimitService, metrics service.Metrics, cfg *config.RateLimitConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		scope, identifier := rateLimitScopeClient, c.ClientIP()
		if res, ok := AuthResultFrom(c); ok && res.PKPAddress != "" {
			scope, identifier = rateLimitScopePKP, res.PKPAddress
		}

		result, err := rateLimiter.Allow(c.Request.Context(), scope+":"+identifier)
		if err != nil {
			log.Error(c.Request.Context(), "rate limiter failed", err)
			c.Next() // Fail open
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			metrics.RecordRateLimitHit(scope)
			log.Warn(c.Request.Context(), "rate limit exceeded",
				logger.String("scope", scope),
				logger.String("identifier", identifier),
				logger.Int("limit", result.Limit),
			)
			if !result.ResetAt.IsZero() {
				c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			}
			dto.SendError(c, errors.ErrRateLimitExceeded(scope, result.Limit))
			return
		}

		c.Next()
	}
}
