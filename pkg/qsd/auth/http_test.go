package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/auth"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// whoami writes the actor's username, or "anonymous".
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.ActorFromContext(r.Context()); ok {
		w.Write([]byte(user.Username))
		return
	}
	w.Write([]byte("anonymous"))
})

func createUser(t *testing.T, svc *auth.Service, username string, roles ...string) *qsd.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), auth.CreateUserRequest{
		Username: username, Password: "pw", Roles: roles,
	})
	require.NoError(t, err)
	return user
}

func TestSessions_LoginRoundTrip(t *testing.T) {
	svc := newTestService(t)
	alice := createUser(t, svc, "alice")
	sessions := auth.NewSessions(testSecret, false, svc)

	login := httptest.NewRecorder()
	require.NoError(t, sessions.Login(login, httptest.NewRequest(http.MethodPost, "/login", nil), alice.ID))
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.SessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	sessions.LoadActor(whoami).ServeHTTP(rec, req)
	assert.Equal(t, "alice", rec.Body.String())

	logout := httptest.NewRecorder()
	require.NoError(t, sessions.Logout(logout, req))
	cleared := logout.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestSessions_LoadActorAnonymous(t *testing.T) {
	svc := newTestService(t)
	sessions := auth.NewSessions(testSecret, false, svc)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"garbage cookie", &http.Cookie{Name: auth.SessionName, Value: "garbage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			sessions.LoadActor(whoami).ServeHTTP(rec, req)
			assert.Equal(t, "anonymous", rec.Body.String())
		})
	}

	t.Run("cookie signed by another secret", func(t *testing.T) {
		other := auth.NewSessions([]byte("ffffffffffffffffffffffffffffffff"), false, svc)
		login := httptest.NewRecorder()
		require.NoError(t, other.Login(login, httptest.NewRequest(http.MethodPost, "/", nil), uuid.New()))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range login.Result().Cookies() {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		sessions.LoadActor(whoami).ServeHTTP(rec, req)
		assert.Equal(t, "anonymous", rec.Body.String())
	})
}

func TestTokens(t *testing.T) {
	svc := newTestService(t)
	alice := createUser(t, svc, "alice")
	tokens := auth.NewTokens(testSecret, time.Hour, svc)

	token, err := tokens.Issue(alice.ID)
	require.NoError(t, err)

	fallback, err := auth.NewTokens(testSecret, -time.Hour, svc).Issue(alice.ID)
	require.NoError(t, err)

	ghost, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	foreign, err := auth.NewTokens([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, svc).Issue(alice.ID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer " + token, http.StatusOK, "alice"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"malformed", "Bearer not.a.token", http.StatusUnauthorized, ""},
		{"unknown user", "Bearer " + ghost, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, ""},
		// a non-positive ttl falls back to the default, so this token is valid
		{"default ttl", "Bearer " + fallback, http.StatusOK, "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/qsd", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tokens.Middleware(whoami).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	admin := &qsd.User{ID: uuid.New(), Username: "root", Roles: []string{qsd.RoleAdministrator}}
	student := &qsd.User{ID: uuid.New(), Username: "kid", Roles: []string{qsd.RoleStudent}}

	tests := []struct {
		name         string
		actor        *qsd.User
		wantStatus   int
		wantLocation string
		jsonStatus   int
	}{
		{"anonymous", nil, http.StatusFound, "/login?next=%2Fadmin%2Fqsd%2F%3Fq%3Dx", http.StatusUnauthorized},
		{"student", student, http.StatusForbidden, "", http.StatusForbidden},
		{"admin", admin, http.StatusOK, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/qsd/?q=x", nil)
			if tt.actor != nil {
				req = req.WithContext(auth.WithActor(req.Context(), tt.actor))
			}

			rec := httptest.NewRecorder()
			auth.RequireAdmin(whoami).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))

			rec = httptest.NewRecorder()
			auth.RequireAdminJSON(whoami).ServeHTTP(rec, req)
			assert.Equal(t, tt.jsonStatus, rec.Code)
		})
	}
}
