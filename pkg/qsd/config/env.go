package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// envConfig mirrors the environment variables understood by WithEnv.
// Unset variables leave the corresponding ServerConfig field unchanged.
type envConfig struct {
	Port          string        `env:"PORT" env-description:"HTTP listen port (default 8080)"`
	Environment   string        `env:"ENVIRONMENT" env-description:"development, production or testing"`
	DatabaseURL   string        `env:"DATABASE_URL" env-description:"memory, postgres://..., postgresql://... or sqlite://<path>"`
	DBSchema      string        `env:"DB_SCHEMA" env-description:"Postgres schema (default qsd)"`
	AutoMigrate   string        `env:"DB_AUTO_MIGRATE" env-description:"apply the schema on startup (default true)"`
	CacheURL      string        `env:"CACHE_URL" env-description:"none, ristretto://, bigcache:// or redis://..."`
	CacheTTL      time.Duration `env:"CACHE_TTL" env-description:"lifetime of cached renderings (default 10m)"`
	CacheLog      string        `env:"CACHE_LOG" env-description:"cache logger: slog or zap"`
	SessionSecret string        `env:"SESSION_SECRET" env-description:"cookie signing key, 32+ bytes (required in production)"`
	JWTSecret     string        `env:"JWT_SECRET" env-description:"API token signing key, 32+ bytes (required in production)"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" env-description:"API token lifetime (default 24h)"`
	SecureCookies string        `env:"SECURE_COOKIES" env-description:"mark session cookies Secure"`
	SeedFile      string        `env:"SEED_FILE" env-description:"YAML fixtures applied on startup"`
	EventLogging  string        `env:"ENABLE_EVENT_LOGGING" env-description:"log record changes (default true)"`
}

// WithEnv applies environment variable overrides.
//
// Database:
//
//	DATABASE_URL - "memory" (default), "postgres://..." / "postgresql://..."
//	               or "sqlite://<path>" ("sqlite://:memory:" for a throwaway db)
//
// Cache:
//
//	CACHE_URL - "ristretto://" (default), "bigcache://", "redis://host:6379/0"
//	            or "none"
//
// See Usage for the full list.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}

		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}
		if env.DBSchema != "" {
			c.DBSchema = env.DBSchema
		}
		if env.CacheTTL > 0 {
			c.CacheTTL = env.CacheTTL
		}
		if env.CacheLog != "" {
			c.CacheLogger = strings.ToLower(env.CacheLog)
		}
		if env.SessionSecret != "" {
			c.SessionSecret = env.SessionSecret
		}
		if env.JWTSecret != "" {
			c.JWTSecret = env.JWTSecret
		}
		if env.TokenTTL > 0 {
			c.TokenTTL = env.TokenTTL
		}
		if env.SeedFile != "" {
			c.SeedFile = env.SeedFile
		}

		if err := applyBool(env.AutoMigrate, "DB_AUTO_MIGRATE", &c.AutoMigrate); err != nil {
			return err
		}
		if err := applyBool(env.SecureCookies, "SECURE_COOKIES", &c.SecureCookies); err != nil {
			return err
		}
		if err := applyBool(env.EventLogging, "ENABLE_EVENT_LOGGING", &c.EnableEventLogging); err != nil {
			return err
		}

		if err := applyDatabaseURL(env.DatabaseURL, c); err != nil {
			return err
		}
		return applyCacheURL(env.CacheURL, c)
	}
}

// WithDotEnv loads the given files (".env" when none) into the process
// environment before WithEnv reads it. Missing files are ignored and
// variables already set in the environment win.
func WithDotEnv(files ...string) Option {
	return func(c *ServerConfig) error {
		if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
}

// Usage describes the environment variables understood by WithEnv.
func Usage() string {
	header := "Environment variables:"
	text, err := cleanenv.GetDescription(&envConfig{}, &header)
	if err != nil {
		return header
	}
	return text
}

// applyDatabaseURL auto-detects the database type from the URL
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "":
		return nil
	case dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	case strings.HasPrefix(dbURL, "sqlite://"):
		path := strings.TrimPrefix(dbURL, "sqlite://")
		if path == "" {
			return fmt.Errorf("sqlite path cannot be empty in DATABASE_URL")
		}
		c.DatabaseType = "sqlite"
		c.DatabaseURL = path
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'postgresql://...' or 'sqlite://...')", dbURL)
	}
	return nil
}

// applyCacheURL selects the cache backend from the URL scheme
func applyCacheURL(cacheURL string, c *ServerConfig) error {
	switch {
	case cacheURL == "":
		return nil
	case cacheURL == "none":
		c.CacheType = "none"
		c.CacheURL = ""
	case strings.HasPrefix(cacheURL, "ristretto://"):
		c.CacheType = "ristretto"
		c.CacheURL = ""
	case strings.HasPrefix(cacheURL, "bigcache://"):
		c.CacheType = "bigcache"
		c.CacheURL = ""
	case strings.HasPrefix(cacheURL, "redis://"), strings.HasPrefix(cacheURL, "rediss://"):
		c.CacheType = "redis"
		c.CacheURL = cacheURL
	default:
		return fmt.Errorf("unsupported CACHE_URL format: %s (use 'none', 'ristretto://', 'bigcache://' or 'redis://...')", cacheURL)
	}
	return nil
}

func applyBool(raw, key string, dst *bool) error {
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	*dst = parsed
	return nil
}
