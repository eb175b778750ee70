// Package bigcache keeps rendered pages in allegro/bigcache shards.
//
// bigcache only knows one lifetime for the whole cache, so each stored value
// is prefixed with its own expiry and Get treats an expired value as a miss.
package bigcache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/tendant/qsd/pkg/qsd/cache"
)

var _ cache.Provider = (*Provider)(nil)

const expiryLen = 8

type Provider struct {
	shards    *bc.BigCache
	now       func() time.Time
	closeOnce sync.Once
}

type Config struct {
	// LifeWindow is the longest an entry may live; shorter per-entry TTLs
	// are honoured on read. Defaults to 10 minutes.
	LifeWindow time.Duration
	// MaxSizeMB caps shard memory. 0 means unlimited.
	MaxSizeMB int
	// Now overrides the clock in tests.
	Now func() time.Time
}

func New(cfg Config) (*Provider, error) {
	if cfg.LifeWindow <= 0 {
		cfg.LifeWindow = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.CleanWindow = cfg.LifeWindow / 2
	conf.HardMaxCacheSize = cfg.MaxSizeMB
	conf.Verbose = false

	shards, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, fmt.Errorf("bigcache: %w", err)
	}
	return &Provider{shards: shards, now: cfg.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, err := p.shards.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bigcache get %s: %w", key, err)
	}

	if len(raw) < expiryLen {
		_ = p.shards.Delete(key)
		return nil, false, nil
	}
	if exp := int64(binary.BigEndian.Uint64(raw)); exp != 0 && p.now().UnixNano() >= exp {
		_ = p.shards.Delete(key)
		return nil, false, nil
	}
	return raw[expiryLen:], true, nil
}

// Set stores value until ttl elapses, or until the life window does when
// ttl is zero.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	raw := make([]byte, expiryLen+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(raw, uint64(p.now().Add(ttl).UnixNano()))
	}
	copy(raw[expiryLen:], value)

	if err := p.shards.Set(key, raw); err != nil {
		return false, fmt.Errorf("bigcache set %s: %w", key, err)
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.shards.Delete(key)
	if err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return fmt.Errorf("bigcache delete %s: %w", key, err)
	}
	return nil
}

// Close is idempotent.
func (p *Provider) Close(_ context.Context) error {
	var err error
	p.closeOnce.Do(func() { err = p.shards.Close() })
	return err
}
