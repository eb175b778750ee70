package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/admin"
	"github.com/tendant/qsd/pkg/qsd/api"
	"github.com/tendant/qsd/pkg/qsd/auth"
	"github.com/tendant/qsd/pkg/qsd/seed"
)

// App is a fully wired QSD installation
type App struct {
	Config   *ServerConfig
	Database *Database
	Caches   *Caches
	Service  qsd.Service
	Users    *auth.Service
	Saver    *admin.Saver
	Sessions *auth.Sessions
	Tokens   *auth.Tokens
}

// Build opens the configured database and caches, assembles the service
// and applies the seed file when one is configured.
func (c *ServerConfig) Build(ctx context.Context) (*App, error) {
	db, err := c.OpenDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	caches, err := c.OpenCaches(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build caches: %w", err)
	}

	app, err := c.assemble(db, caches)
	if err != nil {
		app.Close()
		return nil, err
	}

	if c.SeedFile != "" {
		fx, err := seed.Load(c.SeedFile)
		if err != nil {
			app.Close()
			return nil, err
		}
		if _, err := seed.Apply(ctx, app.Service, app.Users, fx); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to apply seed file: %w", err)
		}
	}

	return app, nil
}

// assemble always returns an App so the caller can close what was opened.
func (c *ServerConfig) assemble(db *Database, caches *Caches) (*App, error) {
	app := &App{Config: c, Database: db, Caches: caches}

	options := []qsd.Option{
		qsd.WithRepository(db.Repository),
		qsd.WithPageCache(caches.Page),
		qsd.WithInlineCache(caches.Inline),
		qsd.WithLogger(slog.Default()),
	}
	if c.EnableEventLogging {
		options = append(options, qsd.WithEventSink(qsd.NewLogEventSink(slog.Default())))
	}

	svc, err := qsd.New(options...)
	if err != nil {
		return app, err
	}
	app.Service = svc
	app.Users = auth.NewService(db.Repository, 0)
	app.Saver = admin.NewSaver(svc)

	sessionKey, err := c.secret("SESSION_SECRET", c.SessionSecret)
	if err != nil {
		return app, err
	}
	jwtKey, err := c.secret("JWT_SECRET", c.JWTSecret)
	if err != nil {
		return app, err
	}
	app.Sessions = auth.NewSessions(sessionKey, c.SecureCookies, app.Users)
	app.Tokens = auth.NewTokens(jwtKey, c.TokenTTL, app.Users)

	return app, nil
}

// secret returns the configured key, or a random one outside production.
// Random keys invalidate sessions and tokens on every restart.
func (c *ServerConfig) secret(name, value string) ([]byte, error) {
	if value != "" {
		return []byte(value), nil
	}
	if c.IsProduction() {
		return nil, fmt.Errorf("%s is required in production", name)
	}
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return nil, errors.New("failed to generate random key")
	}
	slog.Warn("Using a random signing key; sessions will not survive restarts", "variable", name)
	return key, nil
}

// Handler returns the HTTP routes of the application
func (a *App) Handler() (http.Handler, error) {
	server, err := api.NewServer(api.Config{
		Service:  a.Service,
		Saver:    a.Saver,
		Users:    a.Users,
		Sessions: a.Sessions,
		Tokens:   a.Tokens,
		ReadyCheck: func(r *http.Request) error {
			return a.Ping(r.Context())
		},
	})
	if err != nil {
		return nil, err
	}
	return server.Routes(), nil
}

// Ping checks the database and any remote cache
func (a *App) Ping(ctx context.Context) error {
	if err := a.Database.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := a.Caches.Ping(ctx); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// Close releases the caches and database connections. It is safe on a partially built App.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Caches != nil {
		a.Caches.Close()
	}
	if a.Database != nil {
		a.Database.Close()
	}
}
