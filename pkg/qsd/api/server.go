// Package api serves QSD over HTTP: rendered pages, the browser admin, the
// login form and a JSON API for inline editors.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/admin"
	"github.com/tendant/qsd/pkg/qsd/auth"
)

// Config contains the collaborators of a Server
type Config struct {
	Service  qsd.Service
	Saver    *admin.Saver
	Users    *auth.Service
	Sessions *auth.Sessions
	Tokens   *auth.Tokens
	// ReadyCheck reports whether dependencies are reachable. Optional.
	ReadyCheck func(r *http.Request) error
}

// Server wraps the QSD service for HTTP access
type Server struct {
	service  qsd.Service
	saver    *admin.Saver
	users    *auth.Service
	sessions *auth.Sessions
	tokens   *auth.Tokens
	ready    func(r *http.Request) error
	views    *views
}

// NewServer creates a server and parses its templates.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("service is required")
	}
	if cfg.Users == nil || cfg.Sessions == nil || cfg.Tokens == nil {
		return nil, errors.New("users, sessions and tokens are required")
	}
	if cfg.Saver == nil {
		cfg.Saver = admin.NewSaver(cfg.Service)
	}

	v, err := loadViews(cfg.Service)
	if err != nil {
		return nil, err
	}

	return &Server{
		service:  cfg.Service,
		saver:    cfg.Saver,
		users:    cfg.Users,
		sessions: cfg.Sessions,
		tokens:   cfg.Tokens,
		ready:    cfg.ReadyCheck,
		views:    v,
	}, nil
}

// Routes sets up the HTTP routes
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health checks
	r.Get("/healthz", s.handleHealth)
	r.Get("/healthz/ready", s.handleReady)

	// JSON API, bearer tokens only
	r.Route("/api/v1", s.apiRoutes)

	// Browser routes, cookie sessions
	r.Group(func(r chi.Router) {
		r.Use(s.sessions.LoadActor)

		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, adminListPath, http.StatusFound)
			})
			r.Get("/qsd/", s.handleAdminList)
			r.Get("/qsd/add/", s.handleAdminAddForm)
			r.Post("/qsd/add/", s.handleAdminAdd)
			r.Get("/qsd/{id}/change/", s.handleAdminChangeForm)
			r.Post("/qsd/{id}/change/", s.handleAdminChange)
			r.Post("/qsd/{id}/delete/", s.handleAdminDelete)
		})

		r.Get("/", s.handlePage)
		r.Get("/*", s.handlePage)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r); err != nil {
			slog.Error("Readiness check failed", "error", err)
			http.Error(w, "NOT READY", http.StatusServiceUnavailable)
			return
		}
	}
	s.handleHealth(w, r)
}
