// Package ristretto keeps rendered pages in process memory using
// dgraph-io/ristretto, admitting entries by their byte size.
package ristretto

import (
	"context"
	"fmt"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/tendant/qsd/pkg/qsd/cache"
)

var _ cache.Provider = (*Provider)(nil)

// Provider is safe for concurrent use. Writes are buffered; call Wait to
// make them visible to Get.
type Provider struct {
	store        *rc.Cache
	maxEntrySize int
}

type options struct {
	maxBytes     int64
	counters     int64
	maxEntrySize int
	metrics      bool
}

// Option configures a Provider.
type Option func(*options)

// WithMaxBytes bounds the total size of stored entries. Defaults to 64 MiB.
func WithMaxBytes(n int64) Option { return func(o *options) { o.maxBytes = n } }

// WithCounters sets the number of admission counters, roughly ten times the
// expected number of entries. Defaults to 100k.
func WithCounters(n int64) Option { return func(o *options) { o.counters = n } }

// WithMaxEntrySize rejects single entries larger than n bytes. Defaults to 1 MiB.
func WithMaxEntrySize(n int) Option { return func(o *options) { o.maxEntrySize = n } }

// WithMetrics enables hit and miss counting, see Stats.
func WithMetrics() Option { return func(o *options) { o.metrics = true } }

func New(opts ...Option) (*Provider, error) {
	o := options{maxBytes: 64 << 20, counters: 1e5, maxEntrySize: 1 << 20}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxBytes <= 0 || o.counters <= 0 || o.maxEntrySize <= 0 {
		return nil, fmt.Errorf("ristretto: sizes must be positive (max bytes %d, counters %d, max entry %d)",
			o.maxBytes, o.counters, o.maxEntrySize)
	}

	store, err := rc.NewCache(&rc.Config{
		NumCounters: o.counters,
		MaxCost:     o.maxBytes,
		BufferItems: 64,
		Metrics:     o.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &Provider{store: store, maxEntrySize: o.maxEntrySize}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	if b, ok := v.([]byte); ok {
		return b, true, nil
	}
	p.store.Del(key)
	return nil, false, nil
}

// Set copies value, since ristretto keeps the slice it is given. Entries
// over the size limit are refused with ok=false.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if len(value) > p.maxEntrySize {
		return false, nil
	}
	stored := append([]byte(nil), value...)
	return p.store.SetWithTTL(key, stored, int64(len(stored)), ttl), nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.store.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied.
func (p *Provider) Wait() { p.store.Wait() }

// Stats reports hits and misses; both are zero unless WithMetrics was given.
func (p *Provider) Stats() (hits, misses uint64) {
	if p.store.Metrics == nil {
		return 0, 0
	}
	return p.store.Metrics.Hits(), p.store.Metrics.Misses()
}

func (p *Provider) Close(_ context.Context) error {
	p.store.Wait()
	p.store.Close()
	return nil
}
