package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret32 = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "ristretto", cfg.CacheType)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Options(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr string
		check   func(t *testing.T, cfg *ServerConfig)
	}{
		{
			name: "sqlite and bigcache",
			opts: []Option{WithPort("9000"), WithDatabase("sqlite", "qsd.db"), WithCache("bigcache", ""), WithCacheTTL(time.Minute)},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "9000", cfg.Port)
				assert.Equal(t, "sqlite", cfg.DatabaseType)
				assert.Equal(t, "qsd.db", cfg.DatabaseURL)
				assert.Equal(t, "bigcache", cfg.CacheType)
				assert.Equal(t, time.Minute, cfg.CacheTTL)
			},
		},
		{name: "empty port", opts: []Option{WithPort("")}, wantErr: "port cannot be empty"},
		{name: "postgres without url", opts: []Option{WithDatabase("postgres", "")}, wantErr: "database URL is required"},
		{name: "unknown database", opts: []Option{WithDatabase("mysql", "x")}, wantErr: "database type must be"},
		{name: "redis without url", opts: []Option{WithCache("redis", "")}, wantErr: "cache URL is required"},
		{name: "unknown cache", opts: []Option{WithCache("memcached", "")}, wantErr: "unsupported cache type"},
		{name: "non-positive ttl", opts: []Option{WithCacheTTL(0)}, wantErr: "must be positive"},
		{name: "production without secrets", opts: []Option{WithEnvironment("production")}, wantErr: "session_secret"},
		{
			name: "production with secrets",
			opts: []Option{WithEnvironment("production"), WithSecrets(secret32, secret32)},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.True(t, cfg.IsProduction())
			},
		},
		{name: "production with short jwt secret", opts: []Option{WithEnvironment("production"), WithSecrets(secret32, "short")}, wantErr: "jwt_secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.opts...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestWithEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg *ServerConfig)
	}{
		{
			name: "postgres url",
			env:  map[string]string{"DATABASE_URL": "postgres://u:p@localhost/db", "DB_SCHEMA": "site"},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "postgres", cfg.DatabaseType)
				assert.Equal(t, "postgres://u:p@localhost/db", cfg.DatabaseURL)
				assert.Equal(t, "site", cfg.DBSchema)
			},
		},
		{
			name: "postgresql scheme",
			env:  map[string]string{"DATABASE_URL": "postgresql://localhost/db"},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "postgres", cfg.DatabaseType)
			},
		},
		{
			name: "sqlite path",
			env:  map[string]string{"DATABASE_URL": "sqlite:///var/lib/qsd.db"},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "sqlite", cfg.DatabaseType)
				assert.Equal(t, "/var/lib/qsd.db", cfg.DatabaseURL)
			},
		},
		{name: "empty sqlite path", env: map[string]string{"DATABASE_URL": "sqlite://"}, wantErr: "sqlite path cannot be empty"},
		{name: "unknown database url", env: map[string]string{"DATABASE_URL": "mysql://x"}, wantErr: "unsupported DATABASE_URL"},
		{
			name: "redis cache",
			env:  map[string]string{"CACHE_URL": "redis://localhost:6379/0", "CACHE_TTL": "5m", "CACHE_LOG": "ZAP"},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "redis", cfg.CacheType)
				assert.Equal(t, "redis://localhost:6379/0", cfg.CacheURL)
				assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
				assert.Equal(t, "zap", cfg.CacheLogger)
			},
		},
		{
			name: "cache disabled",
			env:  map[string]string{"CACHE_URL": "none"},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "none", cfg.CacheType)
			},
		},
		{name: "unknown cache url", env: map[string]string{"CACHE_URL": "memcached://x"}, wantErr: "unsupported CACHE_URL"},
		{
			name: "booleans and auth",
			env: map[string]string{
				"DB_AUTO_MIGRATE":      "false",
				"SECURE_COOKIES":       "true",
				"ENABLE_EVENT_LOGGING": "0",
				"TOKEN_TTL":            "1h",
				"SESSION_SECRET":       "s",
				"JWT_SECRET":           "j",
				"SEED_FILE":            "fixtures.yaml",
				"PORT":                 "9999",
			},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.False(t, cfg.AutoMigrate)
				assert.True(t, cfg.SecureCookies)
				assert.False(t, cfg.EnableEventLogging)
				assert.Equal(t, time.Hour, cfg.TokenTTL)
				assert.Equal(t, "s", cfg.SessionSecret)
				assert.Equal(t, "j", cfg.JWTSecret)
				assert.Equal(t, "fixtures.yaml", cfg.SeedFile)
				assert.Equal(t, "9999", cfg.Port)
			},
		},
		{name: "bad boolean", env: map[string]string{"SECURE_COOKIES": "maybe"}, wantErr: "SECURE_COOKIES"},
		{name: "bad cache logger", env: map[string]string{"CACHE_LOG": "logrus"}, wantErr: "cache logger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(WithEnv())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestWithDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("QSD_DOTENV_PROBE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("QSD_DOTENV_PROBE") })

	_, err := Load(WithDotEnv(path))
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("QSD_DOTENV_PROBE"))

	_, err = Load(WithDotEnv(filepath.Join(dir, "missing.env")))
	assert.NoError(t, err)
}

func TestUsage(t *testing.T) {
	usage := Usage()
	for _, name := range []string{"DATABASE_URL", "CACHE_URL", "SESSION_SECRET", "SEED_FILE"} {
		assert.True(t, strings.Contains(usage, name), "usage lists %s", name)
	}
}
