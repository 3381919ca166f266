package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	domain "docbot-auth-service/internal/domain/user"
)

// Config holds all configuration for the application
type Config struct {
	DB        DatabaseConfig
	App       AppConfig
	Auth      AuthConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Docbot    DocbotConfig
	Logger    LoggerConfig
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	Driver          string `mapstructure:"DB_DRIVER"`
	URL             string `mapstructure:"DATABASE_URL"`
	Host            string `mapstructure:"DB_HOST"`
	Port            string `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime int    `mapstructure:"DB_CONN_MAX_IDLE_TIME"`
}

// AppConfig holds configuration for the application servers
type AppConfig struct {
	Env                    string   `mapstructure:"APP_ENV"`
	HTTPPort               string   `mapstructure:"HTTP_PORT"`
	GRPCPort               string   `mapstructure:"GRPC_PORT"`
	ShutdownTimeoutSeconds int      `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
	CORSAllowedOrigins     []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// AuthConfig holds token, hashing and account policy settings
type AuthConfig struct {
	JWTSecret              string        `mapstructure:"JWT_SECRET"`
	TokenTTL               time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	TokenIssuer            string        `mapstructure:"AUTH_TOKEN_ISSUER"`
	BcryptCost             int           `mapstructure:"AUTH_BCRYPT_COST"`
	EmailPolicy            string        `mapstructure:"AUTH_EMAIL_POLICY"`
	DuplicateEmailConflict bool          `mapstructure:"AUTH_DUPLICATE_EMAIL_CONFLICT"`
	ExposeErrorDetails     bool          `mapstructure:"AUTH_EXPOSE_ERROR_DETAILS"`
	RevocationEnabled      bool          `mapstructure:"AUTH_REVOCATION_ENABLED"`
}

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Enabled     bool   `mapstructure:"REDIS_ENABLED"`
	URL         string `mapstructure:"REDIS_URL"`
	Host        string `mapstructure:"REDIS_HOST"`
	Port        string `mapstructure:"REDIS_PORT"`
	Password    string `mapstructure:"REDIS_PASSWORD"`
	DB          int    `mapstructure:"REDIS_DB"`
	MaxRetries  int    `mapstructure:"REDIS_MAX_RETRIES"`
	PoolSize    int    `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConn int    `mapstructure:"REDIS_MIN_IDLE_CONN"`
	CacheTTL    int    `mapstructure:"REDIS_CACHE_TTL"`
}

// RateLimitConfig holds configuration for the token bucket limiter
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `mapstructure:"RATE_LIMIT_RPS"`
	BurstCapacity     int     `mapstructure:"RATE_LIMIT_BURST"`
}

// DocbotConfig holds configuration for the external chat backend
type DocbotConfig struct {
	ServerURL      string        `mapstructure:"DOCBOT_SERVER_URL"`
	Timeout        time.Duration `mapstructure:"DOCBOT_TIMEOUT"`
	MaxUploadBytes int64         `mapstructure:"DOCBOT_MAX_UPLOAD_BYTES"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL"`
	Format           string  `mapstructure:"LOG_FORMAT"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads configuration from an optional app.env in path and from
// environment variables. Environment variables win.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	config.DB.Driver = v.GetString("DB_DRIVER")
	config.DB.URL = v.GetString("DATABASE_URL")
	config.DB.Host = v.GetString("DB_HOST")
	config.DB.Port = v.GetString("DB_PORT")
	config.DB.User = v.GetString("DB_USER")
	config.DB.Password = v.GetString("DB_PASSWORD")
	config.DB.Name = v.GetString("DB_NAME")
	config.DB.SSLMode = v.GetString("DB_SSLMODE")
	config.DB.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME")
	config.DB.ConnMaxIdleTime = v.GetInt("DB_CONN_MAX_IDLE_TIME")

	config.App.Env = v.GetString("APP_ENV")
	config.App.HTTPPort = v.GetString("HTTP_PORT")
	if config.App.HTTPPort == "" {
		config.App.HTTPPort = v.GetString("PORT")
	}
	config.App.GRPCPort = v.GetString("GRPC_PORT")
	// viper skips empty env vars; an explicitly empty GRPC_PORT turns gRPC off
	if port, ok := os.LookupEnv("GRPC_PORT"); ok && strings.TrimSpace(port) == "" {
		config.App.GRPCPort = ""
	}
	config.App.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")
	config.App.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	config.Auth.JWTSecret = v.GetString("JWT_SECRET")
	config.Auth.TokenTTL = v.GetDuration("AUTH_TOKEN_TTL")
	config.Auth.TokenIssuer = v.GetString("AUTH_TOKEN_ISSUER")
	config.Auth.BcryptCost = v.GetInt("AUTH_BCRYPT_COST")
	config.Auth.EmailPolicy = v.GetString("AUTH_EMAIL_POLICY")
	config.Auth.DuplicateEmailConflict = v.GetBool("AUTH_DUPLICATE_EMAIL_CONFLICT")
	config.Auth.ExposeErrorDetails = v.GetBool("AUTH_EXPOSE_ERROR_DETAILS")
	config.Auth.RevocationEnabled = v.GetBool("AUTH_REVOCATION_ENABLED")

	config.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	config.Redis.URL = v.GetString("REDIS_URL")
	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")
	config.Redis.CacheTTL = v.GetInt("REDIS_CACHE_TTL")

	config.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	config.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.BurstCapacity = v.GetInt("RATE_LIMIT_BURST")

	config.Docbot.ServerURL = v.GetString("DOCBOT_SERVER_URL")
	config.Docbot.Timeout = v.GetDuration("DOCBOT_TIMEOUT")
	config.Docbot.MaxUploadBytes = v.GetInt64("DOCBOT_MAX_UPLOAD_BYTES")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "docbot")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("GRPC_PORT", "50051")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("AUTH_TOKEN_TTL", "24h")
	v.SetDefault("AUTH_TOKEN_ISSUER", "docbot-auth-service")
	v.SetDefault("AUTH_BCRYPT_COST", 10)
	v.SetDefault("AUTH_EMAIL_POLICY", string(domain.EmailPolicyExact))
	v.SetDefault("AUTH_DUPLICATE_EMAIL_CONFLICT", true)
	v.SetDefault("AUTH_EXPOSE_ERROR_DETAILS", false)
	v.SetDefault("AUTH_REVOCATION_ENABLED", false)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	v.SetDefault("REDIS_CACHE_TTL", 300)

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.SetDefault("DOCBOT_TIMEOUT", "120s")
	v.SetDefault("DOCBOT_MAX_UPLOAD_BYTES", 32<<20)

	// Logger defaults
	if v.GetString("APP_ENV") == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "docbot-auth-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if _, err := domain.ParseEmailPolicy(c.Auth.EmailPolicy); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_EMAIL_POLICY: %w", err))
	}
	if c.Auth.RevocationEnabled && !c.Redis.Enabled {
		errs = append(errs, errors.New("AUTH_REVOCATION_ENABLED requires REDIS_ENABLED"))
	}

	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver))
	}
	if c.DB.Driver == "sqlite" && c.DB.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for the sqlite driver"))
	}

	if c.App.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT (or PORT) is required"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstCapacity <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// DSN returns the data source name for the configured driver.
// DATABASE_URL is used verbatim when set.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// splitList parses a comma separated list, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
