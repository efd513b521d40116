package grpc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	grpcCodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	app_svc "github.com/turtacn/vincent/internal/application/service"
	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

// InterceptorChain 拦截器链
type InterceptorChain struct {
	log              logger.Logger
	authAppSvc       app_svc.AuthAppService
	rateLimitService service.RateLimitService
	metrics          service.Metrics
	protected        map[string]bool
}

// NewInterceptorChain 创建拦截器链. rateLimitService may be nil. Methods listed in
// protected require a Vincent JWT in the authorization metadata.
func NewInterceptorChain(
	log logger.Logger,
	authAppSvc app_svc.AuthAppService,
	rateLimitService service.RateLimitService,
	metrics service.Metrics,
	protected ...string,
) *InterceptorChain {
	set := make(map[string]bool, len(protected))
	for _, m := range protected {
		set[m] = true
	}
	return &InterceptorChain{
		log:              log.WithComponent("GRPCInterceptors"),
		authAppSvc:       authAppSvc,
		rateLimitService: rateLimitService,
		metrics:          metrics,
		protected:        set,
	}
}

// UnaryRecoveryInterceptor 恢复拦截器(捕获 panic)
func (ic *InterceptorChain) UnaryRecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				ic.log.Error(ctx, "gRPC handler panic recovered", fmt.Errorf("%v", r),
					logger.String("method", info.FullMethod),
				)
				err = status.Error(grpcCodes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}

// UnaryLoggingInterceptor 日志拦截器. It also assigns the request id.
func (ic *InterceptorChain) UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()

		// 提取 Metadata
		md, _ := metadata.FromIncomingContext(ctx)
		requestID := firstValue(md, strings.ToLower(constants.HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(strings.ToLower(constants.HeaderRequestID), requestID))

		clientIP := firstValue(md, "x-forwarded-for")
		if clientIP == "" {
			if p, ok := peer.FromContext(ctx); ok {
				clientIP = p.Addr.String()
			}
		}

		// 执行处理器
		resp, err := handler(ctx, req)

		statusCode := grpcCodes.OK
		if err != nil {
			if st, ok := status.FromError(err); ok {
				statusCode = st.Code()
			}
		}

		ic.log.Info(ctx, "gRPC request completed",
			logger.String("method", info.FullMethod),
			logger.String("client_ip", clientIP),
			logger.String("user_agent", firstValue(md, "user-agent")),
			logger.Int64("duration_ms", time.Since(startTime).Milliseconds()),
			logger.String("status", statusCode.String()),
		)

		return resp, err
	}
}

// UnaryAuthInterceptor verifies the bearer token of protected methods and attaches the
// AuthResult to the context.
func (ic *InterceptorChain) UnaryAuthInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !ic.protected[info.FullMethod] {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		parts := strings.Fields(firstValue(md, "authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return nil, errors.ErrInvalidJWT("missing bearer token")
		}

		result, err := ic.authAppSvc.VerifyToken(ctx, parts[1], "")
		if err != nil {
			return nil, err
		}
		return handler(models.ContextWithAuth(ctx, result), req)
	}
}

// UnaryRateLimitInterceptor 限流拦截器, per PKP for authenticated calls and per peer otherwise.
func (ic *InterceptorChain) UnaryRateLimitInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if ic.rateLimitService == nil {
			return handler(ctx, req)
		}

		scope, identifier := "client", "unknown"
		if res, ok := models.AuthFromContext(ctx); ok {
			scope, identifier = "pkp", res.PKPAddress
		} else if p, ok := peer.FromContext(ctx); ok {
			identifier = p.Addr.String()
		}

		// 检查限流
		result, err := ic.rateLimitService.Allow(ctx, scope+":"+identifier)
		if err != nil {
			ic.log.Error(ctx, "rate limit check failed", err,
				logger.String("identifier", identifier),
				logger.String("method", info.FullMethod),
			)
			// 限流服务故障时降级放行
			return handler(ctx, req)
		}

		if !result.Allowed {
			if ic.metrics != nil {
				ic.metrics.RecordRateLimitHit(scope)
			}
			ic.log.Warn(ctx, "rate limit exceeded",
				logger.String("identifier", identifier),
				logger.String("method", info.FullMethod),
			)
			return nil, errors.ErrRateLimitExceeded(scope, result.Limit)
		}

		return handler(ctx, req)
	}
}

// UnaryErrorInterceptor 错误转换拦截器(将领域错误转换为 gRPC 状态码)
func (ic *InterceptorChain) UnaryErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		return resp, convertDomainErrorToGRPC(err)
	}
}

// convertDomainErrorToGRPC 将领域错误转换为 gRPC 错误. Authentication failures are
// always the generic Unauthenticated status.
func convertDomainErrorToGRPC(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.IsAuthenticationError(err) {
		return status.Error(grpcCodes.Unauthenticated, constants.NotAuthenticatedMessage)
	}
	vErr, ok := errors.AsVincentError(err)
	if !ok {
		return status.Error(grpcCodes.Internal, "internal server error")
	}

	switch vErr.HTTPStatus() {
	case http.StatusBadRequest:
		return status.Error(grpcCodes.InvalidArgument, vErr.Error())
	case http.StatusTooManyRequests:
		return status.Error(grpcCodes.ResourceExhausted, vErr.Error())
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return status.Error(grpcCodes.Unavailable, vErr.Error())
	default:
		return status.Error(grpcCodes.Internal, "internal server error")
	}
}

// ChainUnaryInterceptors 链式调用所有拦截器
func (ic *InterceptorChain) ChainUnaryInterceptors() grpc.ServerOption {
	return grpc.ChainUnaryInterceptor(
		ic.UnaryRecoveryInterceptor(),  // 1. 恢复 panic
		ic.UnaryLoggingInterceptor(),   // 2. 日志
		ic.UnaryErrorInterceptor(),     // 3. 错误转换
		ic.UnaryAuthInterceptor(),      // 4. 认证
		ic.UnaryRateLimitInterceptor(), // 5. 限流
	)
}

func firstValue(md metadata.MD, key string) string {
	if vs := md.Get(key); len(vs) > 0 {
		return vs[0]
	}
	return ""
}
