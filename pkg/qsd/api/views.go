package api

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/tendant/qsd/pkg/qsd"
)

//go:embed templates/*.html
var templateFS embed.FS

var viewNames = []string{"page.html", "login.html", "admin_list.html", "admin_form.html"}

// baseView carries the fields every page layout reads.
type baseView struct {
	Title       string
	Description string
	Keywords    string
	Actor       *qsd.User
}

// views holds one parsed template set per page. Sets are never executed
// directly; qsd.ExecuteInline executes request-scoped clones.
type views struct {
	service qsd.Service
	sets    map[string]*template.Template
}

func loadViews(svc qsd.Service) (*views, error) {
	funcs := template.FuncMap{"pageURL": qsd.PageURL}

	v := &views{service: svc, sets: make(map[string]*template.Template, len(viewNames))}
	for _, name := range viewNames {
		t, err := template.New("layout.html").
			Funcs(qsd.InlineFuncs(context.Background(), svc)).
			Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.sets[name] = t
	}
	return v, nil
}

func (v *views) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := v.sets[name]
	if !ok {
		slog.Error("Unknown template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := qsd.ExecuteInline(r.Context(), v.service, t, &buf, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
