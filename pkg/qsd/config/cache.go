package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/cache"
	bigcacheprovider "github.com/tendant/qsd/pkg/qsd/cache/provider/bigcache"
	redisprovider "github.com/tendant/qsd/pkg/qsd/cache/provider/redis"
	ristrettoprovider "github.com/tendant/qsd/pkg/qsd/cache/provider/ristretto"
	"github.com/tendant/qsd/pkg/qsd/cache/zaplog"
	"go.uber.org/zap"
)

const (
	pageNamespace   = "page"
	inlineNamespace = "inline"
	redisGenPrefix  = "qsd:gen:"
)

// Caches holds the page and inline caches sharing one provider.
type Caches struct {
	Page   qsd.Cache
	Inline qsd.Cache

	ping  func(ctx context.Context) error
	close func()
}

// Ping verifies a remote cache is reachable
func (c *Caches) Ping(ctx context.Context) error {
	if c.ping == nil {
		return nil
	}
	return c.ping(ctx)
}

// Close releases the provider and flushes the cache logger
func (c *Caches) Close() {
	if c.close != nil {
		c.close()
	}
}

// OpenCaches creates the page and inline caches based on the configuration
func (c *ServerConfig) OpenCaches(ctx context.Context) (*Caches, error) {
	if c.CacheType == "none" {
		return &Caches{Page: qsd.NewNoopCache(), Inline: qsd.NewNoopCache()}, nil
	}

	logger, syncLogger, err := c.cacheLogger()
	if err != nil {
		return nil, err
	}

	var (
		provider cache.Provider
		gens     cache.GenStore
		ping     func(ctx context.Context) error
	)
	switch c.CacheType {
	case "ristretto":
		p, err := ristrettoprovider.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
		}
		provider = p
	case "bigcache":
		p, err := bigcacheprovider.New(bigcacheprovider.Config{LifeWindow: c.CacheTTL})
		if err != nil {
			return nil, fmt.Errorf("failed to create bigcache: %w", err)
		}
		provider = p
	case "redis":
		p, err := redisprovider.NewFromURL(c.CacheURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		provider = p
		// Generations live next to the entries so every replica sees the same invalidations.
		gens = cache.NewRedisGenStore(p.Client(), redisGenPrefix)
		ping = p.Ping
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", c.CacheType)
	}
	if gens == nil {
		gens = cache.NewLocalGenStore()
	}

	newCache := func(ns string) (*cache.Cache[qsd.Page], error) {
		return cache.New(cache.Options[qsd.Page]{
			Namespace:  ns,
			Provider:   provider,
			GenStore:   gens,
			DefaultTTL: c.CacheTTL,
			Logger:     logger,
		})
	}
	page, err := newCache(pageNamespace)
	if err != nil {
		_ = provider.Close(ctx)
		return nil, err
	}
	inline, err := newCache(inlineNamespace)
	if err != nil {
		_ = provider.Close(ctx)
		return nil, err
	}

	slog.Info("Cache configured", "type", c.CacheType, "ttl", c.CacheTTL, "logger", c.CacheLogger)
	return &Caches{
		Page:   page,
		Inline: inline,
		ping:   ping,
		close: func() {
			if err := provider.Close(context.Background()); err != nil {
				slog.Warn("Failed to close cache provider", "error", err)
			}
			syncLogger()
		},
	}, nil
}

func (c *ServerConfig) cacheLogger() (cache.Logger, func(), error) {
	if c.CacheLogger != "zap" {
		return cache.NewSlogLogger(slog.Default()), func() {}, nil
	}

	var (
		l   *zap.Logger
		err error
	)
	if c.IsProduction() {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create zap logger: %w", err)
	}
	l = l.Named("qsd.cache")
	return zaplog.New(l), func() { _ = l.Sync() }, nil
}
