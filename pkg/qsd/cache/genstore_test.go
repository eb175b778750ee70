package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGenStore(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore()

	gen, err := s.Snapshot(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, gen)

	next, err := s.Bump(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)

	gen, err = s.Snapshot(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)

	other, err := s.Snapshot(ctx, "other")
	require.NoError(t, err)
	assert.Zero(t, other)
}
