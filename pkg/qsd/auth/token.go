package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// Tokens issues and verifies HS256 bearer tokens for the JSON API.
type Tokens struct {
	jwt   *jwtauth.JWTAuth
	ttl   time.Duration
	users *Service
}

// NewTokens creates a token issuer. ttl <= 0 defaults to 24 hours.
func NewTokens(secret []byte, ttl time.Duration, users *Service) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{
		jwt:   jwtauth.New("HS256", secret, nil),
		ttl:   ttl,
		users: users,
	}
}

// Issue returns a signed token whose subject is userID.
func (t *Tokens) Issue(userID uuid.UUID) (string, error) {
	claims := map[string]interface{}{"sub": userID.String()}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, t.ttl)
	_, token, err := t.jwt.Encode(claims)
	return token, err
}

// Middleware verifies the bearer token, rejects invalid ones with 401 and
// puts the token's user into the request context.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	resolve := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			unauthorized(w, r)
			return
		}
		sub, _ := claims["sub"].(string)
		id, err := uuid.Parse(sub)
		if err != nil {
			unauthorized(w, r)
			return
		}
		user, err := t.users.GetUser(r.Context(), id)
		if err != nil {
			unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), user)))
	})
	return jwtauth.Verifier(t.jwt)(jwtauth.Authenticator(resolve))
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"error": http.StatusText(http.StatusUnauthorized)})
}
