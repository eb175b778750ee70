package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		switch dbType {
		case "memory":
		case "postgres", "sqlite":
			if url == "" {
				return fmt.Errorf("database URL is required for %s", dbType)
			}
		default:
			return fmt.Errorf("database type must be 'memory', 'postgres' or 'sqlite', got: %s", dbType)
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithCache selects the page cache backend. url is only used by redis.
func WithCache(cacheType, url string) Option {
	return func(c *ServerConfig) error {
		switch cacheType {
		case "none", "ristretto", "bigcache":
		case "redis":
			if url == "" {
				return fmt.Errorf("cache URL is required for redis")
			}
		default:
			return fmt.Errorf("unsupported cache type: %s", cacheType)
		}
		c.CacheType = cacheType
		c.CacheURL = url
		return nil
	}
}

// WithCacheTTL sets the lifetime of cached renderings
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive")
		}
		c.CacheTTL = ttl
		return nil
	}
}

// WithSecrets sets the session and token signing secrets
func WithSecrets(sessionSecret, jwtSecret string) Option {
	return func(c *ServerConfig) error {
		c.SessionSecret = sessionSecret
		c.JWTSecret = jwtSecret
		return nil
	}
}

// WithSeedFile applies the given fixtures file on startup
func WithSeedFile(path string) Option {
	return func(c *ServerConfig) error {
		c.SeedFile = path
		return nil
	}
}
