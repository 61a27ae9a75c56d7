package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App     AppConfig
	Session SessionConfig
	Backend BackendConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Logger  LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// IsProduction reports whether the deployment mode is production. It drives
// the session cookie name and its Secure attribute.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// SessionConfig defines session broker parameters.
type SessionConfig struct {
	// Secret signs session tokens. Required; startup fails without it.
	Secret                  string
	CookieTTLHours          int
	ImpersonationTTLMinutes int
}

// CookieTTL is the outer token/cookie lifetime, independent of the inner
// access-token expiry.
func (s SessionConfig) CookieTTL() time.Duration {
	if s.CookieTTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(s.CookieTTLHours) * time.Hour
}

// ImpersonationTTL bounds an impersonated access token.
func (s SessionConfig) ImpersonationTTL() time.Duration {
	if s.ImpersonationTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.ImpersonationTTLMinutes) * time.Minute
}

// BackendConfig locates the marketplace backend API.
type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// Timeout returns the outbound request timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CatalogConfig tunes the catalog proxy cache.
type CatalogConfig struct {
	CacheTTLSeconds int
}

// CacheTTL returns the catalog cache entry lifetime.
func (c CatalogConfig) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults
// where possible. The signing secret has no default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "storefront-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Session: SessionConfig{
			Secret:                  secret,
			CookieTTLHours:          getEnvAsInt("SESSION_COOKIE_TTL_HOURS", 720),
			ImpersonationTTLMinutes: getEnvAsInt("SESSION_IMPERSONATION_TTL_MINUTES", 60),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("BACKEND_BASE_URL", "http://127.0.0.1:9000"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 15),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Catalog: CatalogConfig{
			CacheTTLSeconds: getEnvAsInt("CATALOG_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
