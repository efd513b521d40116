package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/internal/interfaces/http/handlers"
	"github.com/turtacn/vincent/internal/interfaces/http/middleware"
	"github.com/turtacn/vincent/pkg/logger"
)

// MetricsProvider is the monitoring surface the router needs.
type MetricsProvider interface {
	service.Metrics
	middleware.RequestObserver
	Handler() http.Handler
}

// Router HTTP 路由器
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	logger        logger.Logger
	tracer        trace.Tracer
	metrics       MetricsProvider
	rateLimiter   service.RateLimitService
	healthHandler *handlers.HealthHandler
	jwtHandler    *handlers.JWTHandler
	paramsHandler *handlers.ParamsHandler
	auth          gin.HandlerFunc
	mcpHandler    http.Handler
	server        *http.Server
}

// RouterDeps groups what NewRouter wires together. MCPHandler and RateLimiter are optional.
type RouterDeps struct {
	Tracer        trace.Tracer
	Metrics       MetricsProvider
	RateLimiter   service.RateLimitService
	HealthHandler *handlers.HealthHandler
	JWTHandler    *handlers.JWTHandler
	ParamsHandler *handlers.ParamsHandler
	Auth          gin.HandlerFunc
	MCPHandler    http.Handler
}

// NewRouter 创建路由器
func NewRouter(cfg *config.Config, log logger.Logger, deps RouterDeps) *Router {
	// 设置 Gin 模式
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	return &Router{
		engine:        engine,
		config:        cfg,
		logger:        log.WithComponent("HTTPRouter"),
		tracer:        deps.Tracer,
		metrics:       deps.Metrics,
		rateLimiter:   deps.RateLimiter,
		healthHandler: deps.HealthHandler,
		jwtHandler:    deps.JWTHandler,
		paramsHandler: deps.ParamsHandler,
		auth:          deps.Auth,
		mcpHandler:    deps.MCPHandler,
		server: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:        engine,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			MaxHeaderBytes: 1 << 20, // 1MB
		},
	}
}

// SetupRoutes 设置路由
func (r *Router) SetupRoutes() {
	// 全局中间件
	r.engine.Use(middleware.RecoveryMiddleware(r.logger))
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.ObservabilityMiddleware(r.tracer, r.metrics))
	r.engine.Use(middleware.LoggingMiddleware(r.logger))

	// CORS 配置
	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:     r.config.Server.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "Mcp-Session-Id"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Mcp-Session-Id"},
		AllowCredentials: !containsWildcard(r.config.Server.CORSAllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// 健康检查路由（不需要认证）
	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)

	// Prometheus metrics
	r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	// Pprof 性能分析
	if r.config.Server.PprofEnabled {
		pprof.Register(r.engine)
	}

	limit := func(c *gin.Context) { c.Next() }
	if r.rateLimiter != nil {
		limit = middleware.RateLimitMiddleware(r.rateLimiter, r.metrics, &r.config.RateLimit, r.logger)
	}

	// API 路由组
	v1 := r.engine.Group("/api/v1")
	{
		v1.POST("/jwt/verify", limit, r.jwtHandler.Verify)
		v1.GET("/consent-url", r.jwtHandler.ConsentURL)
		v1.GET("/me", r.auth, limit, r.jwtHandler.Me)

		params := v1.Group("/params")
		{
			params.POST("/validate", r.paramsHandler.Validate)
			params.POST("/coerce", r.paramsHandler.Coerce)
			params.POST("/schema", r.paramsHandler.Schema)
		}
	}

	// MCP 工具端点（需要认证）
	if r.mcpHandler != nil {
		mcp := gin.WrapH(r.mcpHandler)
		r.engine.Any(r.config.MCP.Path, r.auth, limit, mcp)
	}

	// 404 处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Engine returns the configured gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Start 启动 HTTP 服务器. It blocks until the server stops; ErrServerClosed is not an error.
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", r.server.Addr))
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping HTTP server...")
	return r.server.Shutdown(ctx)
}
