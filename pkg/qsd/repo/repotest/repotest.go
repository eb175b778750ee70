// Package repotest holds behaviour tests shared by every qsd.Repository
// implementation.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/qsd/pkg/qsd"
)

// Run exercises repo implementations returned by newRepo. Each subtest gets a
// fresh, empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) qsd.Repository) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newRepo(t)) })
	t.Run("NavCategories", func(t *testing.T) { testNavCategories(t, newRepo(t)) })
	t.Run("RecordCRUD", func(t *testing.T) { testRecordCRUD(t, newRepo(t)) })
	t.Run("RecordByName", func(t *testing.T) { testRecordByName(t, newRepo(t)) })
	t.Run("ListRecords", func(t *testing.T) { testListRecords(t, newRepo(t)) })
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewUser returns an unsaved user with a random username suffix.
func NewUser(username string, roles ...string) *qsd.User {
	return &qsd.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Roles:        roles,
		CreatedAt:    now(),
	}
}

// NewRecord returns an unsaved record owned by author in category.
func NewRecord(url string, author *qsd.User, category *qsd.NavCategory) *qsd.Record {
	ts := now()
	return &qsd.Record{
		ID:            uuid.New(),
		URL:           url,
		Name:          url,
		Title:         "Title of " + url,
		Content:       "content of " + url,
		AuthorID:      author.ID,
		NavCategoryID: category.ID,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
}

func fixtures(t *testing.T, repo qsd.Repository) (*qsd.User, *qsd.NavCategory) {
	t.Helper()
	ctx := context.Background()

	user := NewUser("author", qsd.RoleAdministrator)
	require.NoError(t, repo.CreateUser(ctx, user))

	category := &qsd.NavCategory{ID: uuid.New(), Name: qsd.DefaultNavCategoryName}
	require.NoError(t, repo.CreateNavCategory(ctx, category))
	return user, category
}

func testUsers(t *testing.T, repo qsd.Repository) {
	ctx := context.Background()

	bob := NewUser("bob", qsd.RoleStudent)
	alice := NewUser("alice", qsd.RoleAdministrator, qsd.RoleTeacher)
	require.NoError(t, repo.CreateUser(ctx, bob))
	require.NoError(t, repo.CreateUser(ctx, alice))

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.CreateUser(ctx, NewUser("bob"))
		assert.ErrorIs(t, err, qsd.ErrDuplicateUsername)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.Equal(t, []string{qsd.RoleAdministrator, qsd.RoleTeacher}, got.Roles)
		assert.WithinDuration(t, alice.CreatedAt, got.CreatedAt, time.Millisecond)

		got, err = repo.GetUserByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetUser(ctx, uuid.New())
		assert.ErrorIs(t, err, qsd.ErrUserNotFound)
		_, err = repo.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, qsd.ErrUserNotFound)
	})

	t.Run("update", func(t *testing.T) {
		bob.PasswordHash = "new-hash"
		bob.Roles = append(bob.Roles, qsd.RoleTeacher)
		require.NoError(t, repo.UpdateUser(ctx, bob))

		got, err := repo.GetUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.PasswordHash)
		assert.True(t, got.HasRole(qsd.RoleTeacher))

		err = repo.UpdateUser(ctx, NewUser("ghost"))
		assert.ErrorIs(t, err, qsd.ErrUserNotFound)
	})

	t.Run("list sorted by username", func(t *testing.T) {
		users, err := repo.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "bob", users[1].Username)
	})
}

func testNavCategories(t *testing.T, repo qsd.Repository) {
	ctx := context.Background()

	learn := &qsd.NavCategory{ID: uuid.New(), Name: "learn", Description: "Tutorials"}
	about := &qsd.NavCategory{ID: uuid.New(), Name: "about"}
	require.NoError(t, repo.CreateNavCategory(ctx, learn))
	require.NoError(t, repo.CreateNavCategory(ctx, about))

	got, err := repo.GetNavCategory(ctx, learn.ID)
	require.NoError(t, err)
	assert.Equal(t, *learn, *got)

	got, err = repo.GetNavCategoryByName(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, about.ID, got.ID)

	_, err = repo.GetNavCategory(ctx, uuid.New())
	assert.ErrorIs(t, err, qsd.ErrNavCategoryNotFound)
	_, err = repo.GetNavCategoryByName(ctx, "missing")
	assert.ErrorIs(t, err, qsd.ErrNavCategoryNotFound)

	all, err := repo.ListNavCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "about", all[0].Name)
	assert.Equal(t, "learn", all[1].Name)
}

func testRecordCRUD(t *testing.T, repo qsd.Repository) {
	ctx := context.Background()
	author, category := fixtures(t, repo)

	rec := NewRecord("learn/foo", author, category)
	rec.Description = "desc"
	rec.Keywords = "a, b"
	require.NoError(t, repo.CreateRecord(ctx, rec))

	t.Run("get by id and url", func(t *testing.T) {
		got, err := repo.GetRecord(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.URL, got.URL)
		assert.Equal(t, rec.Title, got.Title)
		assert.Equal(t, "desc", got.Description)
		assert.Equal(t, "a, b", got.Keywords)
		assert.Equal(t, rec.Content, got.Content)
		assert.Equal(t, author.ID, got.AuthorID)
		assert.Equal(t, category.ID, got.NavCategoryID)
		assert.False(t, got.Disabled)
		assert.WithinDuration(t, rec.UpdatedAt, got.UpdatedAt, time.Millisecond)

		got, err = repo.GetRecordByURL(ctx, "learn/foo")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
	})

	t.Run("duplicate url", func(t *testing.T) {
		err := repo.CreateRecord(ctx, NewRecord("learn/foo", author, category))
		assert.ErrorIs(t, err, qsd.ErrDuplicateURL)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetRecord(ctx, uuid.New())
		assert.ErrorIs(t, err, qsd.ErrRecordNotFound)
		_, err = repo.GetRecordByURL(ctx, "nope")
		assert.ErrorIs(t, err, qsd.ErrRecordNotFound)
	})

	t.Run("update moves url", func(t *testing.T) {
		rec.URL = "learn/bar"
		rec.Content = "changed"
		rec.Disabled = true
		rec.UpdatedAt = now().Add(time.Second)
		require.NoError(t, repo.UpdateRecord(ctx, rec))

		_, err := repo.GetRecordByURL(ctx, "learn/foo")
		assert.ErrorIs(t, err, qsd.ErrRecordNotFound)

		got, err := repo.GetRecordByURL(ctx, "learn/bar")
		require.NoError(t, err)
		assert.Equal(t, "changed", got.Content)
		assert.True(t, got.Disabled)
	})

	t.Run("update onto taken url", func(t *testing.T) {
		other := NewRecord("other", author, category)
		require.NoError(t, repo.CreateRecord(ctx, other))

		other.URL = "learn/bar"
		assert.ErrorIs(t, repo.UpdateRecord(ctx, other), qsd.ErrDuplicateURL)
	})

	t.Run("update missing", func(t *testing.T) {
		err := repo.UpdateRecord(ctx, NewRecord("ghost", author, category))
		assert.ErrorIs(t, err, qsd.ErrRecordNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteRecord(ctx, rec.ID))
		_, err := repo.GetRecord(ctx, rec.ID)
		assert.ErrorIs(t, err, qsd.ErrRecordNotFound)
		assert.ErrorIs(t, repo.DeleteRecord(ctx, rec.ID), qsd.ErrRecordNotFound)
	})
}

func testRecordByName(t *testing.T, repo qsd.Repository) {
	ctx := context.Background()
	author, category := fixtures(t, repo)

	older := NewRecord("footer-old", author, category)
	older.Name = "footer"
	older.UpdatedAt = now().Add(-time.Hour)
	require.NoError(t, repo.CreateRecord(ctx, older))

	newer := NewRecord("footer-new", author, category)
	newer.Name = "footer"
	require.NoError(t, repo.CreateRecord(ctx, newer))

	hidden := NewRecord("footer-hidden", author, category)
	hidden.Name = "footer"
	hidden.Disabled = true
	hidden.UpdatedAt = now().Add(time.Hour)
	require.NoError(t, repo.CreateRecord(ctx, hidden))

	got, err := repo.GetRecordByName(ctx, "footer")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID, "latest enabled record wins")

	_, err = repo.GetRecordByName(ctx, "header")
	assert.ErrorIs(t, err, qsd.ErrRecordNotFound)
}

func testListRecords(t *testing.T, repo qsd.Repository) {
	ctx := context.Background()
	author, category := fixtures(t, repo)

	other := NewUser("other")
	require.NoError(t, repo.CreateUser(ctx, other))

	for _, url := range []string{"learn/b", "learn/a", "about", "learn/c"} {
		require.NoError(t, repo.CreateRecord(ctx, NewRecord(url, author, category)))
	}
	disabled := NewRecord("learn/z", other, category)
	disabled.Disabled = true
	require.NoError(t, repo.CreateRecord(ctx, disabled))

	urls := func(records []*qsd.Record) []string {
		out := make([]string, 0, len(records))
		for _, r := range records {
			out = append(out, r.URL)
		}
		return out
	}

	tests := []struct {
		name   string
		filter qsd.ListRecordsRequest
		want   []string
	}{
		{"enabled only", qsd.ListRecordsRequest{}, []string{"about", "learn/a", "learn/b", "learn/c"}},
		{"include disabled", qsd.ListRecordsRequest{IncludeDisabled: true}, []string{"about", "learn/a", "learn/b", "learn/c", "learn/z"}},
		{"prefix", qsd.ListRecordsRequest{URLPrefix: "learn/"}, []string{"learn/a", "learn/b", "learn/c"}},
		{"author", qsd.ListRecordsRequest{AuthorID: other.ID, IncludeDisabled: true}, []string{"learn/z"}},
		{"limit", qsd.ListRecordsRequest{Limit: 2}, []string{"about", "learn/a"}},
		{"offset", qsd.ListRecordsRequest{Offset: 3}, []string{"learn/c"}},
		{"limit and offset", qsd.ListRecordsRequest{Limit: 2, Offset: 1}, []string{"learn/a", "learn/b"}},
		{"offset past end", qsd.ListRecordsRequest{Offset: 10}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.ListRecords(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, urls(records))
		})
	}
}
