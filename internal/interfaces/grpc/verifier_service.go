package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	app_svc "github.com/turtacn/vincent/internal/application/service"
	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

// Full method names of vincent.v1.VerifierService.
const (
	VerifierServiceName   = "vincent.v1.VerifierService"
	VerifyJWTFullMethod   = "/" + VerifierServiceName + "/VerifyJWT"
	WhoAmIFullMethod      = "/" + VerifierServiceName + "/WhoAmI"
	verifierProtoMetadata = "vincent/v1/verifier.proto"
)

// VerifierServer is the server API for vincent.v1.VerifierService. Messages are
// google.protobuf.Struct so clients need no generated code.
//
//	rpc VerifyJWT(Struct{token, audience?}) returns (Struct{valid, pkpAddress, payload})
//	rpc WhoAmI(Struct{}) returns (Struct{pkpAddress, payload})  // bearer token in metadata
type VerifierServer interface {
	VerifyJWT(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func verifyJWTHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerifierServer).VerifyJWT(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifyJWTFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VerifierServer).VerifyJWT(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func whoAmIHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerifierServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WhoAmIFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VerifierServer).WhoAmI(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// VerifierServiceDesc is the grpc.ServiceDesc for vincent.v1.VerifierService.
var VerifierServiceDesc = grpc.ServiceDesc{
	ServiceName: VerifierServiceName,
	HandlerType: (*VerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "VerifyJWT", Handler: verifyJWTHandler},
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: verifierProtoMetadata,
}

// RegisterVerifierServer registers srv on s.
func RegisterVerifierServer(s grpc.ServiceRegistrar, srv VerifierServer) {
	s.RegisterService(&VerifierServiceDesc, srv)
}

// VerifierGRPCService implements VerifierServer on top of AuthAppService.
type VerifierGRPCService struct {
	authAppSvc app_svc.AuthAppService
	log        logger.Logger
}

var _ VerifierServer = (*VerifierGRPCService)(nil)

// NewVerifierGRPCService creates the gRPC verifier service.
func NewVerifierGRPCService(authAppSvc app_svc.AuthAppService, log logger.Logger) *VerifierGRPCService {
	return &VerifierGRPCService{authAppSvc: authAppSvc, log: log.WithComponent("VerifierGRPCService")}
}

// VerifyJWT handles the gRPC request to verify a token.
func (s *VerifierGRPCService) VerifyJWT(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	token := fields["token"].GetStringValue()
	if token == "" {
		return nil, errors.ErrInvalidRequest("token is required")
	}
	result, err := s.authAppSvc.VerifyToken(ctx, token, fields["audience"].GetStringValue())
	if err != nil {
		return nil, err
	}
	return authResultStruct(result, true)
}

// WhoAmI returns the caller authenticated by the auth interceptor.
func (s *VerifierGRPCService) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	result, ok := models.AuthFromContext(ctx)
	if !ok {
		return nil, errors.ErrInvalidJWT("no authenticated caller")
	}
	return authResultStruct(result, false)
}

// authResultStruct goes through JSON so json.Number claims keep their digits.
func authResultStruct(res *models.AuthResult, withValid bool) (*structpb.Struct, error) {
	body := map[string]interface{}{
		"pkpAddress": res.PKPAddress,
		"payload":    res.DecodedJWT.Payload,
	}
	if withValid {
		body["valid"] = true
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.ErrServerError("failed to encode token payload").WithCause(err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, errors.ErrServerError("failed to encode token payload").WithCause(err)
	}
	return out, nil
}

// VerifierClient is a thin client for vincent.v1.VerifierService.
type VerifierClient struct {
	cc grpc.ClientConnInterface
}

// NewVerifierClient creates a client on cc.
func NewVerifierClient(cc grpc.ClientConnInterface) *VerifierClient {
	return &VerifierClient{cc: cc}
}

// VerifyJWT verifies token for audience (the server's audience when empty).
func (c *VerifierClient) VerifyJWT(ctx context.Context, token, audience string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"token": token, "audience": audience})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerifyJWTFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WhoAmI asks who the bearer token in ctx's outgoing metadata belongs to.
func (c *VerifierClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, WhoAmIFullMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
