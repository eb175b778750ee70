package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/auth"
)

// indexURL is the record served at "/".
const indexURL = "index"

type pageView struct {
	baseView
	Page    *qsd.Page
	EditURL string
}

// handlePage serves /<url>.html from the record stored under <url>.
// Missing and disabled records are 404 for every user.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/":
		path = indexURL
	case !strings.HasSuffix(path, ".html"):
		http.NotFound(w, r)
		return
	}

	page, err := s.service.ResolvePage(r.Context(), path)
	if err != nil {
		if errors.Is(err, qsd.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed to resolve page", "path", path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	view := pageView{
		baseView: baseView{
			Title:       page.Title,
			Description: page.Description,
			Keywords:    page.Keywords,
			Actor:       actor,
		},
		Page: page,
	}
	if actor != nil && actor.IsAdmin() {
		view.EditURL = changePath(page.RecordID)
	}

	// Pages reflect edits immediately; keep browsers and proxies from holding stale copies.
	w.Header().Set("Cache-Control", "no-cache")
	s.views.render(w, r, http.StatusOK, "page.html", view)
}
