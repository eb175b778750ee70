// Package config builds a runnable QSD installation from environment
// variables or programmatic options.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		DBSchema:           "qsd",
		AutoMigrate:        true,
		CacheType:          "ristretto",
		CacheTTL:           10 * time.Minute,
		CacheLogger:        "slog",
		TokenTTL:           24 * time.Hour,
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the QSD service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres", "sqlite"
	DBSchema     string // Postgres schema to use (default: qsd)
	AutoMigrate  bool   // apply the schema on startup

	// Cache configuration
	CacheType   string // "none", "ristretto", "bigcache", "redis"
	CacheURL    string // redis connection string when CacheType is redis
	CacheTTL    time.Duration
	CacheLogger string // "slog", "zap"

	// Authentication
	SessionSecret string
	JWTSecret     string
	TokenTTL      time.Duration
	SecureCookies bool

	// SeedFile is a YAML fixtures file applied on startup. Optional.
	SeedFile string

	EnableEventLogging bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'sqlite'")
	}

	switch c.CacheType {
	case "none", "ristretto", "bigcache":
	case "redis":
		if c.CacheURL == "" {
			return errors.New("cache_url is required when using redis")
		}
	default:
		return fmt.Errorf("unsupported cache type: %s", c.CacheType)
	}

	if c.CacheLogger != "slog" && c.CacheLogger != "zap" {
		return fmt.Errorf("cache logger must be 'slog' or 'zap', got: %s", c.CacheLogger)
	}

	if c.IsProduction() {
		if len(c.SessionSecret) < 32 {
			return errors.New("session_secret of at least 32 bytes is required in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("jwt_secret of at least 32 bytes is required in production")
		}
	}

	return nil
}

// IsProduction reports whether the server runs in the production environment.
func (c *ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
