package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	appservice "github.com/turtacn/vincent/internal/application/service"
	"github.com/turtacn/vincent/internal/config"
	domainservice "github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/internal/infrastructure/cache"
	"github.com/turtacn/vincent/internal/infrastructure/crypto"
	"github.com/turtacn/vincent/internal/infrastructure/monitoring"
	"github.com/turtacn/vincent/internal/infrastructure/persistence/redis"
	"github.com/turtacn/vincent/internal/infrastructure/ratelimit"
	grpciface "github.com/turtacn/vincent/internal/interfaces/grpc"
	httpiface "github.com/turtacn/vincent/internal/interfaces/http"
	"github.com/turtacn/vincent/internal/interfaces/http/handlers"
	"github.com/turtacn/vincent/internal/interfaces/http/middleware"
	mcpiface "github.com/turtacn/vincent/internal/interfaces/mcp"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv("VINCENT_CONFIG")); err != nil {
		log.Fatalf("vincent: %v", err)
	}
}

func run(ctx context.Context, configFile string) error {
	// Load config
	loader := config.NewLoader(configFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	loader.Watch(appLogger, func(next *config.Config) {
		appLogger.SetLevel(constants.LogLevel(next.Log.Level))
	})

	// Initialize tracing
	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	metrics := monitoring.NewMetrics()

	// Initialize Redis
	var redisConn *redis.RedisConnection
	if cfg.Redis.Enabled {
		redisConn = redis.NewRedisConnection(cfg.Redis, appLogger)
		if err := redisConn.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisConn.Close()
	}

	rateLimiter, err := newRateLimiter(cfg, redisConn, appLogger)
	if err != nil {
		return err
	}

	// Initialize JWT core
	jwtManager, err := crypto.NewJWTManager(crypto.JWTConfig{
		ClockSkew:    cfg.Auth.ClockSkew,
		KeyCacheSize: cfg.Auth.KeyCacheSize,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create jwt manager: %w", err)
	}
	var verificationCache domainservice.VerificationCache
	if cfg.Auth.CacheEnabled {
		verificationCache = cache.NewVerificationCache(cfg.Auth.CacheTTL, nil)
	}

	// Initialize application services
	authAppSvc := appservice.NewAuthAppService(appservice.AuthAppConfig{
		ExpectedAudience: cfg.Auth.ExpectedAudience,
		ConsentBaseURL:   cfg.Consent.BaseURL,
	}, jwtManager, verificationCache, metrics, tracing.Tracer(), appLogger)
	paramsAppSvc := appservice.NewParamsAppService(metrics, appLogger)

	mcpHandler, err := newMCPHandler(cfg, metrics, appLogger)
	if err != nil {
		return err
	}

	// Initialize HTTP router
	router := httpiface.NewRouter(cfg, appLogger, httpiface.RouterDeps{
		Tracer:        tracing.Tracer(),
		Metrics:       metrics,
		RateLimiter:   rateLimiter,
		HealthHandler: handlers.NewHealthHandler(redisConn, appLogger),
		JWTHandler:    handlers.NewJWTHandler(authAppSvc),
		ParamsHandler: handlers.NewParamsHandler(paramsAppSvc),
		Auth:          middleware.RequireVincentJWT(authAppSvc, appLogger),
		MCPHandler:    mcpHandler,
	})
	router.SetupRoutes()

	// Initialize gRPC server
	chain := grpciface.NewInterceptorChain(appLogger, authAppSvc, rateLimiter, metrics, grpciface.WhoAmIFullMethod)
	grpcServer := grpciface.NewServer(grpciface.NewVerifierGRPCService(authAppSvc, appLogger), chain, appLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(router.Start)
	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("failed to listen for grpc: %w", err)
		}
		g.Go(func() error { return grpcServer.Serve(lis) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.Stop(shutdownCtx)
		return router.Stop(shutdownCtx)
	})

	appLogger.Info(ctx, "Vincent service started",
		logger.Int("http_port", cfg.Server.Port),
		logger.Int("grpc_port", cfg.Server.GRPCPort),
		logger.Bool("mcp_enabled", mcpHandler != nil),
	)
	err = g.Wait()
	appLogger.Info(context.Background(), "Vincent service stopped")
	return err
}

// newRateLimiter prefers Redis so limits hold across instances and falls back to
// in-process buckets otherwise.
func newRateLimiter(cfg *config.Config, redisConn *redis.RedisConnection, log logger.Logger) (domainservice.RateLimitService, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	rlCfg := ratelimit.DefaultRateLimiterConfig()
	rlCfg.Limit = cfg.RateLimit.Requests
	rlCfg.Window = cfg.RateLimit.Window
	if redisConn == nil {
		limiter, err := ratelimit.NewMemoryRateLimiter(rlCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		return limiter, nil
	}
	limiter, err := ratelimit.NewRedisRateLimiter(redisConn.GetClient(), rlCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	return limiter, nil
}

func newMCPHandler(cfg *config.Config, metrics domainservice.Metrics, log logger.Logger) (http.Handler, error) {
	if !cfg.MCP.Enabled {
		return nil, nil
	}
	var tools []config.ToolConfig
	if cfg.MCP.ToolsFile != "" {
		loaded, err := config.LoadTools(cfg.MCP.ToolsFile)
		if err != nil {
			return nil, err
		}
		tools = loaded
	}
	srv, err := mcpiface.NewServer(cfg.MCP, tools, mcpiface.NewDryRunExecutor(log), metrics, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp server: %w", err)
	}
	return srv.Handler(), nil
}
