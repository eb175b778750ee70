package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/repo/memory"
	repopg "github.com/tendant/qsd/pkg/qsd/repo/postgres"
	reposqlite "github.com/tendant/qsd/pkg/qsd/repo/sqlite"
)

// Database is an open repository together with its connection lifecycle.
type Database struct {
	Repository qsd.Repository

	ping  func(ctx context.Context) error
	close func()
}

// Ping verifies the backing store is reachable
func (d *Database) Ping(ctx context.Context) error {
	if d.ping == nil {
		return nil
	}
	return d.ping(ctx)
}

// Close releases the connections of the database
func (d *Database) Close() {
	if d.close != nil {
		d.close()
	}
}

// OpenDatabase creates a Repository based on the configuration
func (c *ServerConfig) OpenDatabase(ctx context.Context) (*Database, error) {
	switch c.DatabaseType {
	case "memory":
		return &Database{Repository: memory.New()}, nil
	case "postgres":
		return c.openPostgres(ctx)
	case "sqlite":
		repo, err := reposqlite.Open(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &Database{
			Repository: repo,
			ping:       repo.Ping,
			close:      func() { _ = repo.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) openPostgres(ctx context.Context) (*Database, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	schema := c.DBSchema
	if schema != "" {
		searchPath := "SET search_path TO " + pgx.Identifier{schema}.Sanitize()
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, searchPath)
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	repo := repopg.NewWithPool(pool)
	if c.AutoMigrate {
		if schema != "" {
			if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to create schema %s: %w", schema, err)
			}
		}
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &Database{
		Repository: repo,
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}
