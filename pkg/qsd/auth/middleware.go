package auth

import (
	"net/http"
	"net/url"

	"github.com/go-chi/render"
)

// LoginPath is where RequireAdmin sends anonymous browsers.
const LoginPath = "/login"

// RequireAdmin redirects anonymous users to the login page and answers 403
// to authenticated users without the Administrator role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := ActorFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		if !user.IsAdmin() {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminJSON is RequireAdmin for API clients: 401 without an actor, 403 for non-admins.
func RequireAdminJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := ActorFromContext(r.Context())
		if !ok {
			unauthorized(w, r)
			return
		}
		if !user.IsAdmin() {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, map[string]string{"error": http.StatusText(http.StatusForbidden)})
			return
		}
		next.ServeHTTP(w, r)
	})
}
