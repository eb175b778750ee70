package cache

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs.
//
// Implementations must be safe for concurrent use and byte-for-byte
// transparent: Get returns exactly the bytes previously passed to Set.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. ok=false means the store rejected the write.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Removing a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
