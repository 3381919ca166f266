package infrastructure

import (
	"fmt"

	"go.uber.org/zap"

	"docbot-auth-service/internal/config"
	redisclient "docbot-auth-service/pkg/redis"
)

// NewRedisClient connects to Redis when REDIS_ENABLED is set. It returns
// a nil client otherwise, which leaves the profile cache, token revocation
// and rate limiting switched off.
func NewRedisClient(cfg *config.Config, l *zap.Logger) (*redisclient.Client, error) {
	if !cfg.Redis.Enabled {
		l.Warn("Redis disabled: profile cache, token revocation and rate limiting are off")
		return nil, nil
	}

	rdb, err := redisclient.NewClient(redisclient.Config{
		URL:         cfg.Redis.URL,
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
	}, l)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}
