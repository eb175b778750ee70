package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// GenStore tracks per-key generations. A missing key has generation 0.
type GenStore interface {
	Snapshot(ctx context.Context, key string) (uint64, error)
	Bump(ctx context.Context, key string) (uint64, error)
}

// LocalGenStore keeps generations in-process. It is only correct when every
// writer shares the process; use RedisGenStore with a shared provider.
type LocalGenStore struct {
	mu   sync.RWMutex
	gens map[string]uint64
}

// NewLocalGenStore creates an empty in-process generation store
func NewLocalGenStore() *LocalGenStore {
	return &LocalGenStore{gens: make(map[string]uint64)}
}

func (s *LocalGenStore) Snapshot(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[key], nil
}

func (s *LocalGenStore) Bump(_ context.Context, key string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[key]++
	return s.gens[key], nil
}

// RedisGenStore keeps generations in Redis so several processes agree on them.
type RedisGenStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisGenStore stores generations under prefix+key
func NewRedisGenStore(rdb goredis.UniversalClient, prefix string) *RedisGenStore {
	if prefix == "" {
		prefix = "gen:"
	}
	return &RedisGenStore{rdb: rdb, prefix: prefix}
}

func (s *RedisGenStore) Snapshot(ctx context.Context, key string) (uint64, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(v, 10, 64)
}

func (s *RedisGenStore) Bump(ctx context.Context, key string) (uint64, error) {
	n, err := s.rdb.Incr(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}
