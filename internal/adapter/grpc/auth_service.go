package grpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"docbot-auth-service/internal/usecase/auth"
	apperrors "docbot-auth-service/pkg/errors"
	"docbot-auth-service/pkg/logger"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "docbot.auth.v1.AuthService"

// Full method names, as seen by interceptors
const (
	RegisterMethod    = "/" + ServiceName + "/Register"
	LoginMethod       = "/" + ServiceName + "/Login"
	VerifyTokenMethod = "/" + ServiceName + "/VerifyToken"
)

// AuthServiceServer is the server API for the auth service. Messages are
// google.protobuf.Struct so clients need no generated stubs.
type AuthServiceServer interface {
	Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	VerifyToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// AuthService_ServiceDesc is the grpc.ServiceDesc for AuthServiceServer
var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(RegisterMethod, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(LoginMethod, AuthServiceServer.Login)},
		{MethodName: "VerifyToken", Handler: unaryHandler(VerifyTokenMethod, AuthServiceServer.VerifyToken)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docbot/auth/v1/auth.proto",
}

// RegisterAuthServiceServer registers srv with s
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

type structMethod func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServer implements AuthServiceServer on top of the auth usecase
type AuthServer struct {
	uc  auth.Service
	log *zap.Logger
}

// NewAuthServer creates a new gRPC auth server
func NewAuthServer(uc auth.Service, log *zap.Logger) *AuthServer {
	return &AuthServer{uc: uc, log: log}
}

// Register handles {email, password} and returns {userId}
func (s *AuthServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.uc.Register(ctx, auth.RegisterRequest{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{"userId": resp.UserID})
}

// Login handles {email, password} and returns {token, expiresAt}
func (s *AuthServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.uc.Login(ctx, auth.LoginRequest{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{
		"token":     resp.Token,
		"expiresAt": resp.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// VerifyToken handles {token} and returns {userId, email, expiresAt}
func (s *AuthServer) VerifyToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.uc.VerifyToken(ctx, stringField(req, "token"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{
		"userId":    p.UserID,
		"email":     p.Email,
		"expiresAt": p.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// toStatus maps application errors to gRPC status errors. Anything
// unclassified becomes a generic Internal error.
func (s *AuthServer) toStatus(ctx context.Context, err error) error {
	var st apperrors.GRPCStatuser
	if errors.As(err, &st) {
		return st.GRPCStatus().Err()
	}
	logger.WithContext(ctx, s.log).Error("unhandled error", zap.Error(err))
	return status.Error(codes.Internal, "An internal error occurred")
}

func stringField(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[name]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}
