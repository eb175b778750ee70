package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/auth"
	"github.com/tendant/qsd/pkg/qsd/repo/memory"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(memory.New(), bcrypt.MinCost)
}

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, auth.CheckPassword(hash, "s3cret"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
	assert.False(t, auth.CheckPassword("not-a-hash", "s3cret"))
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	tests := []struct {
		name    string
		req     auth.CreateUserRequest
		wantErr error
	}{
		{"valid", auth.CreateUserRequest{Username: " alice ", Password: "pw", Roles: []string{qsd.RoleAdministrator}}, nil},
		{"missing username", auth.CreateUserRequest{Password: "pw"}, qsd.ErrInvalidRecord},
		{"missing password", auth.CreateUserRequest{Username: "bob"}, qsd.ErrInvalidRecord},
		{"duplicate", auth.CreateUserRequest{Username: "alice", Password: "pw"}, qsd.ErrDuplicateUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.CreateUser(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
			assert.True(t, user.IsAdmin())
			assert.NotEqual(t, "pw", user.PasswordHash)
		})
	}
}

func TestGetOrCreateUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	req := auth.CreateUserRequest{Username: "alice", Password: "pw"}

	first, created, err := svc.GetOrCreateUser(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.GetOrCreateUser(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	alice, err := svc.CreateUser(ctx, auth.CreateUserRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	_, err = svc.Authenticate(ctx, "alice", "nope")
	assert.ErrorIs(t, err, qsd.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "mallory", "pw")
	assert.ErrorIs(t, err, qsd.ErrInvalidCredentials)
}

func TestSetPasswordAndAddRole(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	alice, err := svc.CreateUser(ctx, auth.CreateUserRequest{Username: "alice", Password: "old"})
	require.NoError(t, err)

	require.NoError(t, svc.SetPassword(ctx, alice.ID, "new"))
	_, err = svc.Authenticate(ctx, "alice", "old")
	assert.ErrorIs(t, err, qsd.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice", "new")
	assert.NoError(t, err)

	require.NoError(t, svc.AddRole(ctx, alice.ID, qsd.RoleTeacher))
	require.NoError(t, svc.AddRole(ctx, alice.ID, qsd.RoleTeacher))
	got, err := svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{qsd.RoleTeacher}, got.Roles)
}
