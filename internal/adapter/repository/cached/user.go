package cached

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"docbot-auth-service/internal/adapter/cache"
	domain "docbot-auth-service/internal/domain/user"
	"docbot-auth-service/internal/usecase/auth"
	"docbot-auth-service/pkg/logger"
)

// UserRepository puts a profile cache in front of lookups by id. Lookups by
// email always reach the store because login needs the current digest.
// Users returned by GetByID never carry a password digest, whether they
// came from the cache or the store.
type UserRepository struct {
	store auth.Repository
	cache cache.UserCache // nil disables caching
	log   *zap.Logger
	group singleflight.Group
}

var _ auth.Repository = (*UserRepository)(nil)

// NewUserRepository wraps store with the given profile cache
func NewUserRepository(store auth.Repository, profiles cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{store: store, cache: profiles, log: log}
}

// Create delegates to the store. New profiles are cached on first read.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	return r.store.Create(ctx, u)
}

// GetByEmail delegates to the store
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.store.GetByEmail(ctx, email)
}

// GetByID serves profile reads from the cache, collapsing concurrent misses
// for the same id into one store query.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u := r.cached(ctx, id); u != nil {
		return u, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		// another caller may have filled the cache while we waited
		if u := r.cached(ctx, id); u != nil {
			return u, nil
		}

		u, err := r.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		p := profile(u)

		if r.cache != nil {
			if err := r.cache.Set(ctx, p); err != nil {
				logger.WithContext(ctx, r.log).Warn("failed to cache profile", zap.Int64("user_id", id), zap.Error(err))
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight get their own copy
	u := *v.(*domain.User)
	return &u, nil
}

// cached returns the cached profile or nil. Cache errors are logged and
// treated as misses.
func (r *UserRepository) cached(ctx context.Context, id int64) *domain.User {
	if r.cache == nil {
		return nil
	}
	u, err := r.cache.Get(ctx, id)
	if err != nil {
		logger.WithContext(ctx, r.log).Warn("profile cache unavailable, reading store", zap.Int64("user_id", id), zap.Error(err))
		return nil
	}
	return u
}

// profile copies u without its password digest
func profile(u *domain.User) *domain.User {
	return &domain.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}
