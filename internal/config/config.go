package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Producer  ProducerConfig
	Export    ExportConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	ProviderURL string
}

// RateLimitConfig carries the two process-wide rule classes: strict for
// credential submission, relaxed for general API traffic.
type RateLimitConfig struct {
	AuthWindow      time.Duration
	AuthMaxRequests int
	APIWindow       time.Duration
	APIMaxRequests  int
}

type ProducerConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type ExportConfig struct {
	Timeout time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	authMax, err := getEnvInt("RATELIMIT_AUTH_MAX", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid RATELIMIT_AUTH_MAX: %w", err)
	}

	apiMax, err := getEnvInt("RATELIMIT_API_MAX", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATELIMIT_API_MAX: %w", err)
	}

	authWindow, err := getEnvDuration("RATELIMIT_AUTH_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid RATELIMIT_AUTH_WINDOW: %w", err)
	}

	apiWindow, err := getEnvDuration("RATELIMIT_API_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid RATELIMIT_API_WINDOW: %w", err)
	}

	tokenTTL, err := getEnvDuration("AUTH_TOKEN_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL: %w", err)
	}

	producerTimeout, err := getEnvDuration("PRODUCER_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid PRODUCER_TIMEOUT: %w", err)
	}

	exportTimeout, err := getEnvDuration("EXPORT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
			TokenTTL:    tokenTTL,
			ProviderURL: getEnv("AUTH_PROVIDER_URL", "http://localhost:9090"),
		},
		RateLimit: RateLimitConfig{
			AuthWindow:      authWindow,
			AuthMaxRequests: authMax,
			APIWindow:       apiWindow,
			APIMaxRequests:  apiMax,
		},
		Producer: ProducerConfig{
			BaseURL: getEnv("PRODUCER_URL", ""),
			APIKey:  getEnv("PRODUCER_API_KEY", ""),
			Timeout: producerTimeout,
		},
		Export: ExportConfig{
			Timeout: exportTimeout,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
