package infrastructure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"docbot-auth-service/internal/config"
)

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.URL = filepath.Join(t.TempDir(), "auth.db")
	cfg.Logger.Level = "warn"

	db, err := NewDatabase(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })

	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasIndex("users", "idx_users_email"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewRedisClient_Disabled(t *testing.T) {
	cfg := &config.Config{}

	rdb, err := NewRedisClient(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestCloseDatabase_Nil(t *testing.T) {
	assert.NoError(t, CloseDatabase(nil))
}
