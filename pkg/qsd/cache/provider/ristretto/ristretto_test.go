package ristretto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	ctx := context.Background()
	p, err := New(WithMetrics())
	require.NoError(t, err)
	defer p.Close(ctx)

	value := []byte("<p>page</p>")
	ok, err := p.Set(ctx, "page:about", value, 0, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	p.Wait()

	// the stored entry does not alias the caller's slice
	value[0] = 'X'

	got, hit, err := p.Get(ctx, "page:about")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("<p>page</p>"), got)

	require.NoError(t, p.Del(ctx, "page:about"))
	p.Wait()

	_, hit, err = p.Get(ctx, "page:about")
	require.NoError(t, err)
	assert.False(t, hit)

	hits, misses := p.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestProvider_RejectsOversizedEntry(t *testing.T) {
	ctx := context.Background()
	p, err := New(WithMaxEntrySize(4))
	require.NoError(t, err)
	defer p.Close(ctx)

	ok, err := p.Set(ctx, "page:big", []byte("too large"), 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	hits, misses := p.Stats()
	assert.Zero(t, hits+misses, "metrics are off by default")
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"max bytes", WithMaxBytes(0)},
		{"counters", WithCounters(-1)},
		{"max entry size", WithMaxEntrySize(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			assert.Error(t, err)
		})
	}
}
