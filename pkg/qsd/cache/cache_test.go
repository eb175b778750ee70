package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProvider struct {
	mu   sync.Mutex
	m    map[string][]byte
	dels int
}

var _ Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = append([]byte(nil), value...)
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dels++
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

type page struct {
	URL  string
	HTML string
}

func newTestCache(t *testing.T, ns string, p Provider, gens GenStore) *Cache[page] {
	t.Helper()
	c, err := New(Options[page]{Namespace: ns, Provider: p, GenStore: gens})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options[page]{Provider: newMemProvider()})
	assert.Error(t, err)

	_, err = New(Options[page]{Namespace: "page"})
	assert.Error(t, err)

	c, err := New(Options[page]{Namespace: "page", Disabled: true})
	require.NoError(t, err)
	assert.Equal(t, "page", c.Namespace())
}

func TestSetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	c := newTestCache(t, "page", p, nil)

	_, ok, err := c.Get(ctx, "learn/foo")
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err := c.Snapshot(ctx, "learn/foo")
	require.NoError(t, err)
	require.NoError(t, c.SetWithGen(ctx, "learn/foo", page{URL: "learn/foo", HTML: "v1"}, gen))

	_, stored := p.m["page:learn/foo"]
	assert.True(t, stored, "entries are namespaced")

	got, ok, err := c.Get(ctx, "learn/foo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", got.HTML)

	require.NoError(t, c.Invalidate(ctx, "learn/foo"))
	_, ok, err = c.Get(ctx, "learn/foo")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetWithGen_SkipsStaleFill(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, "page", newMemProvider(), nil)

	// A reader snapshots, then a writer invalidates before the reader fills.
	gen, err := c.Snapshot(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "k"))
	require.NoError(t, c.SetWithGen(ctx, "k", page{HTML: "old"}, gen))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err = c.Snapshot(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, c.SetWithGen(ctx, "k", page{HTML: "new"}, gen))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.HTML)
}

func TestGet_DropsEntryFromOlderGeneration(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	c := newTestCache(t, "page", p, nil)

	require.NoError(t, c.SetWithGen(ctx, "k", page{HTML: "v1"}, 0))
	raw := append([]byte(nil), p.m["page:k"]...)

	require.NoError(t, c.Invalidate(ctx, "k"))

	// Simulate a delete that never reached the store.
	p.m["page:k"] = raw

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	_, still := p.m["page:k"]
	assert.False(t, still)
}

func TestGet_DropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	c := newTestCache(t, "page", p, nil)

	p.m["page:k"] = []byte{0xc1} // never valid msgpack

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	_, still := p.m["page:k"]
	assert.False(t, still)
}

func TestNamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	gens := NewLocalGenStore()
	pages := newTestCache(t, "page", p, gens)
	inline := newTestCache(t, "inline", p, gens)

	require.NoError(t, pages.SetWithGen(ctx, "k", page{HTML: "page"}, 0))
	require.NoError(t, inline.SetWithGen(ctx, "k", page{HTML: "inline"}, 0))

	require.NoError(t, pages.Invalidate(ctx, "k"))

	_, ok, err := pages.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := inline.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "inline", got.HTML)
}

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	c, err := New(Options[page]{Namespace: "page", Provider: p, Disabled: true})
	require.NoError(t, err)

	require.NoError(t, c.SetWithGen(ctx, "k", page{HTML: "x"}, 0))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, p.m)
	require.NoError(t, c.Invalidate(ctx, "k"))
	assert.Zero(t, p.dels)
}

type failingGenStore struct{ err error }

func (f failingGenStore) Snapshot(context.Context, string) (uint64, error) { return 0, f.err }
func (f failingGenStore) Bump(context.Context, string) (uint64, error)     { return 0, f.err }

func TestInvalidate_ReportsGenStoreFailure(t *testing.T) {
	boom := errors.New("boom")
	c := newTestCache(t, "page", newMemProvider(), failingGenStore{err: boom})

	err := c.Invalidate(context.Background(), "a", "b")
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentFillAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, "page", newMemProvider(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				gen, _ := c.Snapshot(ctx, "k")
				_ = c.SetWithGen(ctx, "k", page{HTML: "stale"}, gen)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Invalidate(ctx, "k")
			}
		}()
	}
	wg.Wait()

	// After a final invalidation nothing filled earlier may be served.
	require.NoError(t, c.Invalidate(ctx, "k"))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
