package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/repo/repotest"
	"github.com/tendant/qsd/pkg/qsd/repo/sqlite"
)

func openTestRepo(t *testing.T, dsn string) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) qsd.Repository {
		return openTestRepo(t, ":memory:")
	})
}

func TestForeignKeys(t *testing.T) {
	repo := openTestRepo(t, ":memory:")
	author := repotest.NewUser("author")
	category := &qsd.NavCategory{Name: "default"}

	err := repo.CreateRecord(context.Background(), repotest.NewRecord("orphan", author, category))
	assert.Error(t, err)
}

func TestOpen_FileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "qsd.db")

	repo, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.CreateUser(ctx, repotest.NewUser("alice")))
	require.NoError(t, repo.Close())

	repo = openTestRepo(t, path)
	got, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}
