package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/internal/domain/service/mocks"
	"github.com/turtacn/vincent/internal/infrastructure/ratelimit"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/logger"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.NewNoopLogger()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	rateLimiter, err := ratelimit.NewRedisRateLimiter(redisClient, &ratelimit.RateLimiterConfig{
		Limit:     1,
		Window:    time.Second,
		KeyPrefix: "test",
	}, log)
	require.NoError(t, err)

	newRouter := func(cfg *config.RateLimitConfig, metrics *mocks.MockMetrics, authenticated bool) *gin.Engine {
		router := gin.New()
		if authenticated {
			router.Use(func(c *gin.Context) {
				c.Set(constants.GinKeyAuth, authResult())
				c.Next()
			})
		}
		router.Use(RateLimitMiddleware(rateLimiter, metrics, cfg, log))
		router.GET("/", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}
	do := func(router *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("should deny request when limit is exceeded", func(t *testing.T) {
		mr.FlushAll()
		metrics := new(mocks.MockMetrics)
		metrics.On("RecordRateLimitHit", "pkp").Once()
		router := newRouter(&config.RateLimitConfig{Enabled: true}, metrics, true)

		// First request should be allowed
		w1 := do(router)
		assert.Equal(t, http.StatusOK, w1.Code)
		assert.Equal(t, "1", w1.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w1.Header().Get("X-RateLimit-Remaining"))

		// Second request within the same window should be denied
		w2 := do(router)
		assert.Equal(t, http.StatusTooManyRequests, w2.Code)
		assert.Contains(t, w2.Body.String(), "rate_limit_exceeded")
		assert.True(t, mr.Exists("test:pkp:"+testPKP))

		// Wait for the window to reset
		mr.FastForward(time.Second)
		assert.Equal(t, http.StatusOK, do(router).Code)

		metrics.AssertExpectations(t)
	})

	t.Run("anonymous requests are keyed by client", func(t *testing.T) {
		mr.FlushAll()
		metrics := new(mocks.MockMetrics)
		metrics.On("RecordRateLimitHit", "client").Once()
		router := newRouter(&config.RateLimitConfig{Enabled: true}, metrics, false)

		assert.Equal(t, http.StatusOK, do(router).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(router).Code)
		metrics.AssertExpectations(t)
	})

	t.Run("should not rate limit when disabled", func(t *testing.T) {
		mr.FlushAll()
		metrics := new(mocks.MockMetrics)
		router := newRouter(&config.RateLimitConfig{Enabled: false}, metrics, true)

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, do(router).Code)
		}
		metrics.AssertNotCalled(t, "RecordRateLimitHit", mock.Anything)
	})
}

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := new(mocks.MockRateLimitService)
	limiter.On("Allow", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	router := gin.New()
	router.Use(RateLimitMiddleware(limiter, new(mocks.MockMetrics), &config.RateLimitConfig{Enabled: true}, logger.NewNoopLogger()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
