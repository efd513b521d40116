package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vincent/internal/infrastructure/persistence/redis"
	"github.com/turtacn/vincent/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	redis *redis.RedisConnection
	log   logger.Logger
}

// NewHealthHandler creates a new HealthHandler. redis is nil when the service runs without Redis.
func NewHealthHandler(redis *redis.RedisConnection, log logger.Logger) *HealthHandler {
	return &HealthHandler{redis: redis, log: log}
}

// LivenessCheck godoc
// @Summary      Liveness Check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now().UTC()})
}

// ReadinessCheck godoc
// @Summary      Readiness Check
// @Description  Checks if the service is ready to accept traffic.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	checks := map[string]interface{}{}
	status, httpStatus := "ready", http.StatusOK

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		st, err := h.redis.Status(ctx)
		if err != nil {
			h.log.Warn(c.Request.Context(), "Readiness check failed", logger.String("dependency", "redis"), logger.Error(err))
			checks["redis"] = "error: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
			checks["redis_latency_ms"] = st.Latency.Milliseconds()
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}
