package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/qsd/pkg/qsd/cache"
)

func TestNew_NilClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestNew_KeyPrefix(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })

	p, err := New(Config{Client: client})
	require.NoError(t, err)
	assert.Equal(t, DefaultKeyPrefix, p.prefix)
	require.NoError(t, p.Close(context.Background()), "a borrowed client is left open")

	p, err = New(Config{Client: client, KeyPrefix: "site-a:"})
	require.NoError(t, err)
	assert.Equal(t, "site-a:", p.prefix)
}

func TestNewFromURL_Invalid(t *testing.T) {
	_, err := NewFromURL("http://localhost:6379")
	assert.Error(t, err)
}

// Requires a running Redis, e.g. TEST_REDIS_URL=redis://localhost:6379/15
func TestProviderAndGenStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	p, err := NewFromURL(url)
	require.NoError(t, err)
	defer p.Close(ctx)

	key := "qsd-test:" + uuid.NewString()
	ok, err := p.Set(ctx, key, []byte("v"), 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	got, hit, err := p.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, p.Ping(ctx))

	raw, err := p.Client().Get(ctx, DefaultKeyPrefix+key).Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), raw, "entries are stored under the key prefix")

	require.NoError(t, p.Del(ctx, key))
	_, hit, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	gens := cache.NewRedisGenStore(p.Client(), "qsd-test:gen:")
	gen, err := gens.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, gen)

	next, err := gens.Bump(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
	t.Cleanup(func() { _ = p.Client().Del(context.Background(), "qsd-test:gen:"+key).Err() })
}
