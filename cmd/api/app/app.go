package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"docbot-auth-service/cmd/api/di"
	"docbot-auth-service/cmd/api/server"
	ginrouter "docbot-auth-service/internal/adapter/gin/router"
	"docbot-auth-service/internal/config"
	"docbot-auth-service/pkg/logger"
)

// App represents the application
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Server    *server.Server
	Container *di.Container
}

// New loads configuration, builds the logger and dependency container and
// prepares the REST and gRPC servers without starting them
func New(ctx context.Context) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container, err := di.NewContainer(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	ginServer := server.SetupGinServer(
		container.AuthHandler,
		ginrouter.Options{
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
			RateLimiter:    container.RateLimiter,
			Verifier:       container.AuthUC,
			Chat:           container.ChatHandler,
		},
		":"+cfg.App.HTTPPort,
		l,
	)

	srv := server.New(cfg, l, ginServer, nil)
	if cfg.App.GRPCPort != "" {
		srv.GRPC = server.SetupGRPC(container.AuthUC, l, container.RateLimiter)
	}

	return &App{
		Config:    cfg,
		Logger:    l,
		Server:    srv,
		Container: container,
	}, nil
}

// Run serves until ctx is canceled or a listener fails, then shuts down
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("starting application",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", a.Config.App.Env),
		zap.Bool("grpc", a.Server.GRPC != nil),
		zap.Bool("chat", a.Container.ChatHandler != nil),
	)

	serveErr := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.Logger.Error("server panic", zap.Any("panic", r), zap.Stack("stack"))
				serveErr <- fmt.Errorf("server panic: %v", r)
			}
		}()
		serveErr <- a.Server.Start()
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
		return a.shutdown()
	case err := <-serveErr:
		if err == nil {
			err = errors.New("servers stopped unexpectedly")
		}
		a.Logger.Error("server stopped", zap.Error(err))
		return errors.Join(err, a.shutdown())
	}
}

// shutdown stops accepting requests, drains in-flight ones within the
// configured timeout and releases the database and Redis pools
func (a *App) shutdown() error {
	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.Logger.Info("graceful shutdown", zap.Duration("timeout", timeout))

	var errs []error
	if a.Server.Gin != nil {
		if err := a.Server.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("rest shutdown: %w", err))
		}
	}
	if a.Server.GRPC != nil {
		if err := stopGRPC(ctx, a.Server.GRPC); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Container.Close(); err != nil {
		errs = append(errs, fmt.Errorf("container close: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		a.Logger.Error("shutdown finished with errors", zap.Error(err))
	} else {
		a.Logger.Info("application shutdown complete")
	}

	// stdout and stderr cannot be synced on most platforms
	if syncErr := a.Logger.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.EINVAL) && !errors.Is(syncErr, syscall.ENOTTY) {
		err = errors.Join(err, fmt.Errorf("logger sync: %w", syncErr))
	}
	return err
}

// stopGRPC drains gRPC calls, forcing the stop once ctx expires
func stopGRPC(ctx context.Context, s *grpc.Server) error {
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.Stop()
		return fmt.Errorf("grpc shutdown: %w", ctx.Err())
	}
}

// loadConfig loads application configuration
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

// initLogger initializes the application logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewWithConfig(logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      cfg.App.Env,
	})
}

// getConfigPath returns the directory searched for app.env
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
