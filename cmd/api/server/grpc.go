package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpcadapter "docbot-auth-service/internal/adapter/grpc"
	"docbot-auth-service/internal/adapter/grpc/middleware"
	"docbot-auth-service/internal/usecase/auth"
	"docbot-auth-service/pkg/logger"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(authUC auth.Service, l *zap.Logger, rateLimiter *middleware.RateLimiter) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logger.RequestIDInterceptor()}
	if rateLimiter != nil {
		interceptors = append(interceptors, rateLimiter.UnaryInterceptor())
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	grpcadapter.RegisterAuthServiceServer(grpcServer, grpcadapter.NewAuthServer(authUC, l))

	return grpcServer
}
