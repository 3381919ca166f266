package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"docbot-auth-service/cmd/api/infrastructure"
	"docbot-auth-service/internal/adapter/cache"
	"docbot-auth-service/internal/adapter/db/postgres"
	ginhandler "docbot-auth-service/internal/adapter/gin/handler"
	"docbot-auth-service/internal/adapter/grpc/middleware"
	"docbot-auth-service/internal/adapter/repository/cached"
	"docbot-auth-service/internal/config"
	domain "docbot-auth-service/internal/domain/user"
	"docbot-auth-service/internal/usecase/auth"
	"docbot-auth-service/pkg/docbot"
	redisclient "docbot-auth-service/pkg/redis"
	"docbot-auth-service/pkg/security"
	"docbot-auth-service/pkg/token"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client // nil when REDIS_ENABLED=false
	AuthUC      *auth.Usecase
	RateLimiter *middleware.RateLimiter // nil without Redis
	AuthHandler *ginhandler.AuthHandler
	ChatHandler *ginhandler.ChatHandler // nil without DOCBOT_SERVER_URL
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	emailPolicy, err := domain.ParseEmailPolicy(cfg.Auth.EmailPolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid email policy: %w", err)
	}

	hasher, err := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	var tokenOpts []token.Option
	if cfg.Auth.TokenIssuer != "" {
		tokenOpts = append(tokenOpts, token.WithIssuer(cfg.Auth.TokenIssuer))
	}
	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, tokenOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c := &Container{
		Config: cfg,
		Logger: l,
		DB:     db,
	}

	var repo auth.Repository = postgres.NewUserRepoPG(db, l)
	var revocations auth.RevocationStore

	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	if rdb != nil {
		c.RedisClient = rdb

		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewUserRepository(repo, userCache, l)

		if cfg.Auth.RevocationEnabled {
			revocations = cache.NewRedisRevocationStore(rdb.Client, l)
		}

		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	c.AuthUC = auth.New(repo, hasher, issuer, revocations, auth.Options{
		EmailPolicy:            emailPolicy,
		DuplicateEmailConflict: cfg.Auth.DuplicateEmailConflict,
	}, l)

	c.AuthHandler = ginhandler.NewAuthHandler(c.AuthUC, l, cfg.Auth.ExposeErrorDetails)

	if cfg.Docbot.ServerURL != "" {
		backend := docbot.New(cfg.Docbot.ServerURL, cfg.Docbot.Timeout)
		c.ChatHandler = ginhandler.NewChatHandler(backend, l, cfg.Docbot.MaxUploadBytes)
	} else {
		l.Info("DOCBOT_SERVER_URL not set, chat routes disabled")
	}

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
