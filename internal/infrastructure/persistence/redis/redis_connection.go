// Package redis owns the optional Redis client shared by the rate limiter and the
// readiness probe.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

const (
	defaultPoolSize = 10
	connectTimeout  = 5 * time.Second
)

// RedisConnection is the lifecycle wrapper around the client.
type RedisConnection struct {
	cfg    config.RedisConfig
	client redis.UniversalClient
	log    logger.Logger
}

// Status is a point-in-time view of the connection, reported by readiness checks.
type Status struct {
	Latency    time.Duration `json:"latency"`
	TotalConns uint32        `json:"totalConns"`
	IdleConns  uint32        `json:"idleConns"`
}

// NewRedisConnection creates an unconnected wrapper; call Connect before use.
func NewRedisConnection(cfg config.RedisConfig, log logger.Logger) *RedisConnection {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &RedisConnection{cfg: cfg, log: log.WithComponent("RedisConnection")}
}

// NewRedisConnectionFromClient wraps an already configured client.
func NewRedisConnectionFromClient(client redis.UniversalClient, log logger.Logger) *RedisConnection {
	rc := NewRedisConnection(config.RedisConfig{Enabled: true}, log)
	rc.client = client
	return rc
}

func (rc *RedisConnection) options() *redis.Options {
	poolSize := rc.cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	return &redis.Options{
		Addr:            rc.cfg.Address,
		Password:        rc.cfg.Password,
		DB:              rc.cfg.DB,
		PoolSize:        poolSize,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     connectTimeout,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		MaxRetries:      3,
	}
}

// Connect dials and pings. A failed ping leaves the wrapper unconnected.
func (rc *RedisConnection) Connect(ctx context.Context) error {
	if rc.client != nil {
		return nil
	}
	opts := rc.options()
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		rc.log.Error(ctx, "Redis ping failed", err, logger.String("addr", opts.Addr))
		return errors.ErrCacheConnectionFailed(err.Error()).WithCause(err)
	}

	rc.client = client
	rc.log.Info(ctx, "Redis connected", logger.String("addr", opts.Addr), logger.Int("pool_size", opts.PoolSize))
	return nil
}

// GetClient returns the client, or nil when not connected.
func (rc *RedisConnection) GetClient() redis.UniversalClient { return rc.client }

// Ping checks connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	_, err := rc.Status(ctx)
	return err
}

// Status pings and reports latency and pool statistics.
func (rc *RedisConnection) Status(ctx context.Context) (Status, error) {
	if rc.client == nil {
		return Status{}, fmt.Errorf("redis is not connected")
	}
	start := time.Now()
	if err := rc.client.Ping(ctx).Err(); err != nil {
		return Status{}, err
	}
	st := Status{Latency: time.Since(start)}
	if stats := rc.client.PoolStats(); stats != nil {
		st.TotalConns, st.IdleConns = stats.TotalConns, stats.IdleConns
	}
	return st, nil
}

// Close closes the client. Closing an unconnected wrapper is a no-op.
func (rc *RedisConnection) Close() error {
	if rc.client == nil {
		return nil
	}
	err := rc.client.Close()
	rc.client = nil
	if err != nil {
		rc.log.Error(context.Background(), "Failed to close Redis connection", err)
	}
	return err
}
