package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	grpcCodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/turtacn/vincent/internal/application/dto"
	app_svc "github.com/turtacn/vincent/internal/application/service"
	"github.com/turtacn/vincent/internal/domain/service/mocks"
	"github.com/turtacn/vincent/internal/infrastructure/crypto"
	"github.com/turtacn/vincent/internal/infrastructure/ratelimit"
	"github.com/turtacn/vincent/pkg/logger"
)

const audience = "https://app.example"

type testEnv struct {
	client  *VerifierClient
	conn    *grpc.ClientConn
	authSvc app_svc.AuthAppService
	signer  *crypto.PrivateKeySigner
	metrics *mocks.MockMetrics
}

func newTestEnv(t *testing.T, limit int) *testEnv {
	t.Helper()
	log := logger.NewNoopLogger()

	manager, err := crypto.NewJWTManager(crypto.JWTConfig{}, log)
	require.NoError(t, err)
	authSvc := app_svc.NewAuthAppService(app_svc.AuthAppConfig{ExpectedAudience: audience}, manager, nil, nil, nil, log)
	signer, err := crypto.GeneratePrivateKeySigner()
	require.NoError(t, err)

	metrics := new(mocks.MockMetrics)
	metrics.On("RecordRateLimitHit", "pkp").Maybe()
	limiter, err := ratelimit.NewMemoryRateLimiter(&ratelimit.RateLimiterConfig{Limit: limit, Window: time.Minute})
	require.NoError(t, err)
	chain := NewInterceptorChain(log, authSvc, limiter, metrics, WhoAmIFullMethod)
	srv := NewServer(NewVerifierGRPCService(authSvc, log), chain, log)

	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{client: NewVerifierClient(conn), conn: conn, authSvc: authSvc, signer: signer, metrics: metrics}
}

func (e *testEnv) token(t *testing.T, aud ...string) string {
	t.Helper()
	created, err := e.authSvc.CreateToken(context.Background(), e.signer, e.signer.Identity(), &dto.CreateJWTRequest{
		Audience:         aud,
		ExpiresInMinutes: 5,
		Payload:          map[string]interface{}{"role": "agent"},
	})
	require.NoError(t, err)
	return created.Token
}

func TestVerifierService_VerifyJWT(t *testing.T) {
	env := newTestEnv(t, 100)
	ctx := context.Background()
	token := env.token(t, audience, "https://other.example")

	out, err := env.client.VerifyJWT(ctx, token, "")
	require.NoError(t, err)
	assert.True(t, out.GetFields()["valid"].GetBoolValue())
	assert.Equal(t, env.signer.Identity().Address, out.GetFields()["pkpAddress"].GetStringValue())
	payload := out.GetFields()["payload"].GetStructValue().GetFields()
	assert.Equal(t, "agent", payload["role"].GetStringValue())

	_, err = env.client.VerifyJWT(ctx, token, "https://other.example")
	require.NoError(t, err)

	_, err = env.client.VerifyJWT(ctx, token, "https://third.example")
	st, _ := status.FromError(err)
	assert.Equal(t, grpcCodes.Unauthenticated, st.Code())
	assert.Equal(t, "not authenticated", st.Message())

	_, err = env.client.VerifyJWT(ctx, "", "")
	st, _ = status.FromError(err)
	assert.Equal(t, grpcCodes.InvalidArgument, st.Code())
}

func TestVerifierService_WhoAmI(t *testing.T) {
	env := newTestEnv(t, 2)
	token := env.token(t, audience)

	_, err := env.client.WhoAmI(context.Background())
	st, _ := status.FromError(err)
	assert.Equal(t, grpcCodes.Unauthenticated, st.Code())

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
	var header metadata.MD
	out, err := env.client.WhoAmI(ctx, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, env.signer.Identity().Address, out.GetFields()["pkpAddress"].GetStringValue())
	assert.NotEmpty(t, header.Get("x-request-id"))

	_, err = env.client.WhoAmI(ctx)
	require.NoError(t, err)
	_, err = env.client.WhoAmI(ctx)
	st, _ = status.FromError(err)
	assert.Equal(t, grpcCodes.ResourceExhausted, st.Code())
	env.metrics.AssertCalled(t, "RecordRateLimitHit", "pkp")
}

func TestVerifierService_Health(t *testing.T) {
	env := newTestEnv(t, 100)
	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: VerifierServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestConvertDomainErrorToGRPC(t *testing.T) {
	st, _ := status.FromError(convertDomainErrorToGRPC(assert.AnError))
	assert.Equal(t, grpcCodes.Internal, st.Code())
	assert.NotContains(t, st.Message(), assert.AnError.Error())

	orig := status.Error(grpcCodes.NotFound, "x")
	assert.Equal(t, orig, convertDomainErrorToGRPC(orig))
}
