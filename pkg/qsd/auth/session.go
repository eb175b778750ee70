package auth

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	// SessionName is the cookie that carries the login session
	SessionName = "qsd_session"

	sessionUserKey = "user_id"
)

// Sessions stores the logged-in user id in a signed cookie.
type Sessions struct {
	store sessions.Store
	users *Service
}

// NewSessions creates a cookie session manager. secret signs the cookie and
// should be at least 32 random bytes.
func NewSessions(secret []byte, secure bool, users *Service) *Sessions {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, users: users}
}

// Login records userID in the session cookie.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	session, _ := s.store.Get(r, SessionName)
	session.Values[sessionUserKey] = userID.String()
	return session.Save(r, w)
}

// Logout clears the session cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, SessionName)
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// LoadActor puts the session's user into the request context when present.
// Requests without a valid session pass through anonymously.
func (s *Sessions) LoadActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.store.Get(r, SessionName)
		if err != nil {
			// Bad signature or stale secret; treat as anonymous.
			next.ServeHTTP(w, r)
			return
		}
		raw, _ := session.Values[sessionUserKey].(string)
		id, err := uuid.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.users.GetUser(r.Context(), id)
		if err != nil {
			slog.Warn("Session user not found", "user_id", raw, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), user)))
	})
}
