package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("HTTP_PORT", "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.HTTPPort)
	assert.Equal(t, "50051", cfg.App.GRPCPort)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "exact", cfg.Auth.EmailPolicy)
	assert.True(t, cfg.Auth.DuplicateEmailConflict)
	assert.False(t, cfg.Auth.ExposeErrorDetails)
	assert.False(t, cfg.Auth.RevocationEnabled)
	assert.Equal(t, []string{"*"}, cfg.App.CORSAllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EmptyGRPCPortDisablesGRPC(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GRPC_PORT", "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.App.GRPCPort)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_GRPCPortFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GRPC_PORT", "6000")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.App.GRPCPort)
}

func TestLoadConfig_HTTPPortWinsOverPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "3000")
	t.Setenv("HTTP_PORT", "8080")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.HTTPPort)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "JWT_SECRET=from-file\nHTTP_PORT=4000\nDB_DRIVER=sqlite\nDATABASE_URL=file:auth.db\nAUTH_EMAIL_POLICY=lowercase\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "4000", cfg.App.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file:auth.db", cfg.DB.DSN())
	assert.Equal(t, "lowercase", cfg.Auth.EmailPolicy)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.CORSAllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("JWT_SECRET=from-file\n"), 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:       AppConfig{HTTPPort: "3000"},
			DB:        DatabaseConfig{Driver: "postgres"},
			Auth:      AuthConfig{JWTSecret: "k", TokenTTL: time.Hour, BcryptCost: 10, EmailPolicy: "exact"},
			RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 1, BurstCapacity: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "AUTH_TOKEN_TTL"},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 2 }, "AUTH_BCRYPT_COST"},
		{"bad email policy", func(c *Config) { c.Auth.EmailPolicy = "fold" }, "AUTH_EMAIL_POLICY"},
		{"revocation without redis", func(c *Config) { c.Auth.RevocationEnabled = true }, "REDIS_ENABLED"},
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }, "DB_DRIVER"},
		{"sqlite without url", func(c *Config) { c.DB.Driver = "sqlite" }, "DATABASE_URL"},
		{"no port", func(c *Config) { c.App.HTTPPort = "" }, "HTTP_PORT"},
		{"bad rate limit", func(c *Config) { c.RateLimit.BurstCapacity = 0 }, "RATE_LIMIT"},
		{"rate limit disabled ignores values", func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: false}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN_FromParts(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "docbot", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=docbot port=5432 sslmode=disable", c.DSN())
}
