package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRevocationStore is a denylist of logged-out token ids. Entries
// expire together with the token they block, so the set never outgrows
// the number of live sessions.
type RedisRevocationStore struct {
	client *redis.Client
	log    *zap.Logger
	now    func() time.Time
}

// NewRedisRevocationStore creates a Redis-backed revocation store.
func NewRedisRevocationStore(client *redis.Client, log *zap.Logger) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, log: log, now: time.Now}
}

func (s *RedisRevocationStore) key(tokenID string) string {
	return "docbot:revoked:" + tokenID
}

// Revoke blocks tokenID until the given time. Tokens already past their
// expiry are not stored.
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return errors.New("token id is required")
	}

	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, s.key(tokenID), 1, ttl).Err(); err != nil {
		s.log.Error("failed to revoke token", zap.Error(err))
		return err
	}

	s.log.Debug("token revoked", zap.Duration("ttl", ttl))
	return nil
}

// IsRevoked reports whether tokenID has been revoked
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
