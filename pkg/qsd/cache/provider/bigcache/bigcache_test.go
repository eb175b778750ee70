package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{LifeWindow: time.Minute})
	require.NoError(t, err)

	_, hit, err := p.Get(ctx, "page:about")
	require.NoError(t, err)
	assert.False(t, hit)

	ok, err := p.Set(ctx, "page:about", []byte("<p>about</p>"), 0, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	got, hit, err := p.Get(ctx, "page:about")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("<p>about</p>"), got)

	require.NoError(t, p.Del(ctx, "page:about"))
	require.NoError(t, p.Del(ctx, "page:about"), "deleting a missing key is not an error")

	_, hit, err = p.Get(ctx, "page:about")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, p.Close(ctx))
	require.NoError(t, p.Close(ctx), "close is idempotent")
}

func TestProvider_EntryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p, err := New(Config{LifeWindow: time.Hour, Now: func() time.Time { return now }})
	require.NoError(t, err)
	defer p.Close(ctx)

	_, err = p.Set(ctx, "short", []byte("a"), 0, time.Second)
	require.NoError(t, err)
	_, err = p.Set(ctx, "window", []byte("b"), 0, 0)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)

	_, hit, err := p.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, hit, "entry outlived its ttl")

	got, hit, err := p.Get(ctx, "window")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("b"), got)
}
