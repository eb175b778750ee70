package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/auth"
)

type loginView struct {
	baseView
	Next     string
	Username string
	Error    string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	s.views.render(w, r, http.StatusOK, "login.html", loginView{
		baseView: baseView{Title: "Log in", Actor: actor},
		Next:     safeNext(r.URL.Query().Get("next")),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	next := safeNext(r.PostForm.Get("next"))

	user, err := s.users.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if !errors.Is(err, qsd.ErrInvalidCredentials) {
			slog.Error("Failed to authenticate", "username", username, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		slog.Info("Login rejected", "username", username)
		s.views.render(w, r, http.StatusOK, "login.html", loginView{
			baseView: baseView{Title: "Log in"},
			Next:     next,
			Username: username,
			Error:    "Please enter a correct username and password.",
		})
		return
	}

	if err := s.sessions.Login(w, r, user.ID); err != nil {
		slog.Error("Failed to save session", "user_id", user.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	slog.Info("User logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, next, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		slog.Warn("Failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// safeNext only allows redirects to local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
