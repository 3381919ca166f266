package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "docbot-auth-service/internal/domain/user"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func TestRedisUserCache_Set_OmitsPasswordHash(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	user := &domain.User{
		ID:           1,
		Email:        "john@example.com",
		PasswordHash: "$2a$10$secretdigest",
		CreatedAt:    created,
	}

	require.NoError(t, cache.Set(context.Background(), user))

	raw, err := mr.Get("docbot:user:1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "secretdigest")

	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "john@example.com", stored["email"])

	assert.Equal(t, 5*time.Minute, mr.TTL("docbot:user:1"))
}

func TestRedisUserCache_Get_Hit(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Set(ctx, &domain.User{ID: 2, Email: "a@x.com", PasswordHash: "h", CreatedAt: created}))

	got, err := cache.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Empty(t, got.PasswordHash)
}

func TestRedisUserCache_Get_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))

	got, err := cache.Get(context.Background(), 404)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisUserCache_Get_Expired(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.User{ID: 3, Email: "a@x.com"}))
	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, 3)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisUserCache_Get_Corrupt(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))

	require.NoError(t, mr.Set("docbot:user:4", "{not json"))

	_, err := cache.Get(context.Background(), 4)
	assert.Error(t, err)
}

func TestRedisUserCache_Set_NilUser(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))

	assert.Error(t, cache.Set(context.Background(), nil))
}

func TestRedisUserCache_ConnectionError(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))
	mr.Close()

	_, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), &domain.User{ID: 1}))
}
