package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	CORS      CORSConfig
	Secure    SecureConfig
}

type ServerConfig struct {
	Port string
}

// DatabaseConfig points at the Postgres document store. Empty URL switches
// the service to the in-memory store (dev only).
type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	URL string
}

// IdentityConfig points at the identity platform's REST API. Empty BaseURL
// switches the service to the in-process dev provider.
type IdentityConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
}

type RateLimitConfig struct {
	// Rate per IP ("100-M" = 100/min). Empty disables.
	RatePerIP string
}

type WebhookConfig struct {
	URL       string
	AuthToken string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type SecureConfig struct {
	IsDevelopment bool
}

func Load() (*Config, error) {
	viper.AutomaticEnv()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		viper.SetConfigFile(p)
		_ = viper.ReadInConfig()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Identity: IdentityConfig{
			BaseURL: os.Getenv("IDENTITY_BASE_URL"),
			APIKey:  os.Getenv("IDENTITY_API_KEY"),
			Timeout: time.Duration(viper.GetInt64("IDENTITY_TIMEOUT_SECS")) * time.Second,
		},
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			CookieName: getEnvOrDefault("SESSION_COOKIE", "accounts_session"),
			TTL:        time.Duration(viper.GetInt64("SESSION_TTL_SECS")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RatePerIP: getEnvOrDefault("RATE_LIMIT_PER_IP", "100-M"),
		},
		Webhook: WebhookConfig{
			URL:       os.Getenv("WEBHOOK_URL"),
			AuthToken: os.Getenv("WEBHOOK_AUTH_TOKEN"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Secure: SecureConfig{
			IsDevelopment: viper.GetBool("DEV_MODE"),
		},
	}
	if cfg.Identity.Timeout <= 0 {
		cfg.Identity.Timeout = 10 * time.Second
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.Secret == "" {
		if !cfg.Secure.IsDevelopment {
			return nil, fmt.Errorf("SESSION_SECRET is required outside DEV_MODE")
		}
		cfg.Session.Secret = "dev-session-secret"
	}
	if cfg.Identity.BaseURL != "" && cfg.Identity.APIKey == "" {
		return nil, fmt.Errorf("IDENTITY_API_KEY is required when IDENTITY_BASE_URL is set")
	}
	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
