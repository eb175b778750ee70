// Package cache is a generation-guarded read-through cache over a byte
// store Provider.
//
// Every key carries a generation. Invalidate bumps it and deletes the entry;
// SetWithGen only writes when the generation still equals the one the caller
// observed before reading its source of truth, and Get drops entries whose
// stored generation no longer matches. A reader racing a writer therefore
// never re-populates the cache with the value the writer just replaced.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const defaultTTL = 10 * time.Minute

// Options configures a Cache.
type Options[V any] struct {
	// Namespace prefixes every provider key ("<ns>:<key>"). Required.
	Namespace string
	// Provider may be shared by several caches; its owner closes it.
	Provider Provider
	// Codec defaults to Msgpack.
	Codec Codec[V]
	// GenStore defaults to an in-process LocalGenStore.
	GenStore GenStore
	// DefaultTTL applies to every fill; defaults to 10 minutes.
	DefaultTTL time.Duration
	Logger     Logger
	// Disabled turns every call into a miss/no-op.
	Disabled bool
}

// Cache stores values of type V.
type Cache[V any] struct {
	ns       string
	provider Provider
	codec    Codec[V]
	gens     GenStore
	ttl      time.Duration
	log      Logger
	enabled  bool

	// mu serialises check-then-set against bump-then-delete.
	mu sync.Mutex
}

// New creates a cache from opts.
func New[V any](opts Options[V]) (*Cache[V], error) {
	if opts.Namespace == "" {
		return nil, errors.New("cache: namespace is required")
	}
	if opts.Provider == nil && !opts.Disabled {
		return nil, errors.New("cache: provider is required")
	}

	c := &Cache[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		gens:     opts.GenStore,
		ttl:      opts.DefaultTTL,
		log:      opts.Logger,
		enabled:  !opts.Disabled,
	}
	if c.codec == nil {
		c.codec = Msgpack[V]{}
	}
	if c.gens == nil {
		c.gens = NewLocalGenStore()
	}
	if c.ttl <= 0 {
		c.ttl = defaultTTL
	}
	if c.log == nil {
		c.log = NopLogger{}
	}
	return c, nil
}

// Namespace returns the key prefix of the cache.
func (c *Cache[V]) Namespace() string { return c.ns }

// Get returns the cached value for key. Corrupt or stale entries are deleted
// and reported as a miss.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if !c.enabled {
		return zero, false, nil
	}

	k := c.storageKey(key)
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}

	e, err := decodeEntry(raw)
	if err != nil {
		c.log.Warn("dropping corrupt entry", Fields{"key": k, "error": err.Error()})
		_ = c.provider.Del(ctx, k)
		return zero, false, nil
	}

	gen, err := c.gens.Snapshot(ctx, k)
	if err != nil {
		return zero, false, err
	}
	if e.Gen != gen {
		c.log.Debug("dropping stale entry", Fields{"key": k, "entry_gen": e.Gen, "gen": gen})
		_ = c.provider.Del(ctx, k)
		return zero, false, nil
	}

	v, err := c.codec.Decode(e.Payload)
	if err != nil {
		c.log.Warn("dropping undecodable entry", Fields{"key": k, "error": err.Error()})
		_ = c.provider.Del(ctx, k)
		return zero, false, nil
	}
	return v, true, nil
}

// Snapshot returns the current generation of key. Take it before reading
// the source of truth and pass it to SetWithGen.
func (c *Cache[V]) Snapshot(ctx context.Context, key string) (uint64, error) {
	if !c.enabled {
		return 0, nil
	}
	return c.gens.Snapshot(ctx, c.storageKey(key))
}

// SetWithGen stores value unless key was invalidated since observedGen.
func (c *Cache[V]) SetWithGen(ctx context.Context, key string, value V, observedGen uint64) error {
	if !c.enabled {
		return nil
	}

	payload, err := c.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	raw, err := encodeEntry(observedGen, payload)
	if err != nil {
		return fmt.Errorf("cache: encode entry %s: %w", key, err)
	}

	k := c.storageKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	gen, err := c.gens.Snapshot(ctx, k)
	if err != nil {
		return err
	}
	if gen != observedGen {
		c.log.Debug("skipping stale fill", Fields{"key": k, "observed": observedGen, "gen": gen})
		return nil
	}

	ok, err := c.provider.Set(ctx, k, raw, int64(len(raw)), c.ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.log.Debug("fill rejected by provider", Fields{"key": k})
	}
	return nil
}

// Invalidate bumps the generation of every key and deletes its entry.
// All keys are attempted; the first error is returned.
func (c *Cache[V]) Invalidate(ctx context.Context, keys ...string) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, key := range keys {
		k := c.storageKey(key)
		if _, err := c.gens.Bump(ctx, k); err != nil {
			c.log.Error("generation bump failed", Fields{"key": k, "error": err.Error()})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := c.provider.Del(ctx, k); err != nil {
			// The bumped generation already hides the entry from Get.
			c.log.Warn("delete failed", Fields{"key": k, "error": err.Error()})
		}
	}
	return firstErr
}

func (c *Cache[V]) storageKey(key string) string {
	return c.ns + ":" + key
}
