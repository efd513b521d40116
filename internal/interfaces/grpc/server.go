package grpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/turtacn/vincent/pkg/logger"
)

// Server wraps the gRPC server with its health service.
type Server struct {
	server *grpc.Server
	health *health.Server
	log    logger.Logger
}

// NewServer creates a gRPC server serving VerifierService, grpc.health.v1 and reflection.
func NewServer(verifier VerifierServer, chain *InterceptorChain, log logger.Logger) *Server {
	s := grpc.NewServer(chain.ChainUnaryInterceptors())
	RegisterVerifierServer(s, verifier)

	hs := health.NewServer()
	hs.SetServingStatus(VerifierServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	return &Server{server: s, health: hs, log: log.WithComponent("GRPCServer")}
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info(context.Background(), "Starting gRPC server", logger.String("address", lis.Addr().String()))
	if err := s.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks the service not serving and drains in-flight calls until ctx is done.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
	s.log.Info(ctx, "gRPC server stopped")
}
