// Package redis stores rendered pages in Redis so that every server replica
// shares one cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tendant/qsd/pkg/qsd/cache"
)

var ErrNilClient = errors.New("redis provider: nil client")

// DefaultKeyPrefix separates page entries from other data in a shared database.
const DefaultKeyPrefix = "qsd:entry:"

var _ cache.Provider = (*Redis)(nil)

type Redis struct {
	rdb    goredis.UniversalClient
	prefix string
	owned  bool
}

type Config struct {
	Client goredis.UniversalClient
	// KeyPrefix is prepended to every key. Defaults to DefaultKeyPrefix.
	KeyPrefix string
	// Owned makes Close close Client.
	Owned bool
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Redis{rdb: cfg.Client, prefix: cfg.KeyPrefix, owned: cfg.Owned}, nil
}

// NewFromURL connects to a redis:// or rediss:// URL. The provider owns the
// client.
func NewFromURL(url string) (*Redis, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis provider: %w", err)
	}
	return New(Config{Client: goredis.NewClient(opts), Owned: true})
}

// Client returns the underlying client, shared with cache.RedisGenStore.
func (p *Redis) Client() goredis.UniversalClient { return p.rdb }

// Ping checks that the server answers.
func (p *Redis) Ping(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis provider: ping: %w", err)
	}
	return nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.prefix+key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	if err := p.rdb.Set(ctx, p.prefix+key, value, ttl).Err(); err != nil {
		return false, fmt.Errorf("redis set %s: %w", key, err)
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	if err := p.rdb.Del(ctx, p.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (p *Redis) Close(context.Context) error {
	if !p.owned {
		return nil
	}
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
