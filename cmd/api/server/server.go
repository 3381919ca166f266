package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"docbot-auth-service/internal/config"
)

// Server struct holds the listeners the application runs
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server // nil when GRPC_PORT is empty
	Gin    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, ginServer *http.Server, grpcServer *grpc.Server) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		GRPC:   grpcServer,
		Gin:    ginServer,
	}
}

// Start runs the REST API and, when configured, the gRPC server. It
// returns when either of them stops with an error.
func (s *Server) Start() error {
	var g errgroup.Group

	g.Go(s.startGin)
	if s.GRPC != nil {
		g.Go(s.startGRPC)
	}

	return g.Wait()
}

// startGin starts the Gin REST API
func (s *Server) startGin() error {
	s.Logger.Info("REST API running", zap.String("address", s.Gin.Addr))
	if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start REST API: %w", err)
	}
	return nil
}

// startGRPC starts the gRPC server
func (s *Server) startGRPC() error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(context.Background(), "tcp", s.grpcAddress())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.Logger.Info("gRPC server running", zap.String("address", s.grpcAddress()))
	if err := s.GRPC.Serve(lis); err != nil {
		return fmt.Errorf("failed to start gRPC server: %w", err)
	}
	return nil
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}
