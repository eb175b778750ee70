package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/qsd/pkg/qsd"
)

const seedYAML = `
users:
  - username: admin
    password: admin-password
    roles: [Administrator]
records:
  - url: index
    title: Home
    content: "Hello from the seed"
    author: admin
  - url: footer
    name: footer
    title: Footer
    content: "seeded footer"
    author: admin
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	return path
}

func TestBuild(t *testing.T) {
	seedFile := writeSeed(t)

	tests := []struct {
		name string
		opts []Option
	}{
		{"memory and ristretto", []Option{WithSeedFile(seedFile)}},
		{"sqlite and bigcache", []Option{
			WithDatabase("sqlite", filepath.Join(t.TempDir(), "qsd.db")),
			WithCache("bigcache", ""),
			WithSeedFile(seedFile),
		}},
		{"memory without cache", []Option{WithCache("none", ""), WithSeedFile(seedFile)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.opts...)
			require.NoError(t, err)

			app, err := cfg.Build(context.Background())
			require.NoError(t, err)
			t.Cleanup(app.Close)

			require.NoError(t, app.Ping(context.Background()))

			handler, err := app.Handler()
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Hello from the seed")
			assert.Contains(t, rec.Body.String(), "seeded footer")

			rec = httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))
			assert.Equal(t, http.StatusOK, rec.Code)

			user, err := app.Users.Authenticate(context.Background(), "admin", "admin-password")
			require.NoError(t, err)
			assert.True(t, user.HasRole(qsd.RoleAdministrator))
		})
	}
}

func TestBuild_SeedFileMissing(t *testing.T) {
	cfg, err := Load(WithSeedFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.NoError(t, err)

	_, err = cfg.Build(context.Background())
	assert.Error(t, err)
}

func TestBuild_ZapCacheLogger(t *testing.T) {
	cfg, err := Load(WithCache("bigcache", ""))
	require.NoError(t, err)
	cfg.CacheLogger = "zap"

	app, err := cfg.Build(context.Background())
	require.NoError(t, err)
	app.Close()
}

func TestApp_CloseNil(t *testing.T) {
	var app *App
	assert.NotPanics(t, app.Close)
	assert.NotPanics(t, (&App{}).Close)
}
