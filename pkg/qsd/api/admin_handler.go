package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/admin"
	"github.com/tendant/qsd/pkg/qsd/auth"
)

const (
	adminListPath = "/admin/qsd/"
	adminAddPath  = "/admin/qsd/add/"
)

func changePath(id uuid.UUID) string {
	return "/admin/qsd/" + id.String() + "/change/"
}

type adminRow struct {
	Record *qsd.Record
	Author string
}

type adminListView struct {
	baseView
	Query string
	Rows  []adminRow
}

type adminFormView struct {
	baseView
	IsNew         bool
	Action        string
	Form          admin.SaveRequest
	NavCategories []*qsd.NavCategory
	Author        string
	Error         string
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	records, err := s.service.ListRecords(r.Context(), qsd.ListRecordsRequest{
		URLPrefix:       query,
		IncludeDisabled: true,
	})
	if err != nil {
		slog.Error("Failed to list records", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	authors := make(map[uuid.UUID]string)
	rows := make([]adminRow, 0, len(records))
	for _, record := range records {
		name, ok := authors[record.AuthorID]
		if !ok {
			name = s.authorName(r, record.AuthorID)
			authors[record.AuthorID] = name
		}
		rows = append(rows, adminRow{Record: record, Author: name})
	}

	s.views.render(w, r, http.StatusOK, "admin_list.html", adminListView{
		baseView: baseView{Title: "Quasi-static data", Actor: actor},
		Query:    query,
		Rows:     rows,
	})
}

func (s *Server) handleAdminAddForm(w http.ResponseWriter, r *http.Request) {
	form := admin.SaveRequest{URL: r.URL.Query().Get("url"), Name: r.URL.Query().Get("name")}
	s.renderForm(w, r, http.StatusOK, form, "")
}

func (s *Server) handleAdminAdd(w http.ResponseWriter, r *http.Request) {
	form, err := parseRecordForm(r, uuid.Nil)
	if err != nil {
		s.renderForm(w, r, http.StatusOK, form, err.Error())
		return
	}
	s.save(w, r, form)
}

func (s *Server) handleAdminChangeForm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	record, err := s.service.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, qsd.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed to get record", "record_id", id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.renderForm(w, r, http.StatusOK, admin.RequestFromRecord(record), "")
}

func (s *Server) handleAdminChange(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	form, err := parseRecordForm(r, id)
	if err != nil {
		s.renderForm(w, r, http.StatusOK, form, err.Error())
		return
	}
	s.save(w, r, form)
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	if err := s.saver.Delete(r.Context(), actor, id); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("Failed to delete record", "record_id", id, "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Redirect(w, r, adminListPath, http.StatusFound)
}

// save persists the submitted form and redirects, or re-renders the form
// with the error when the submission is rejected.
func (s *Server) save(w http.ResponseWriter, r *http.Request, form admin.SaveRequest) {
	actor, _ := auth.ActorFromContext(r.Context())

	record, err := s.saver.Save(r.Context(), actor, form)
	if err != nil {
		switch status := statusFor(err); status {
		case http.StatusBadRequest, http.StatusConflict:
			s.renderForm(w, r, http.StatusOK, form, userMessage(err))
		case http.StatusInternalServerError:
			slog.Error("Failed to save record", "record_id", form.ID, "error", err)
			http.Error(w, http.StatusText(status), status)
		default:
			http.Error(w, http.StatusText(status), status)
		}
		return
	}

	if _, ok := r.PostForm["_continue"]; ok {
		http.Redirect(w, r, changePath(record.ID), http.StatusFound)
		return
	}
	http.Redirect(w, r, adminListPath, http.StatusFound)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, form admin.SaveRequest, errMsg string) {
	actor, _ := auth.ActorFromContext(r.Context())

	categories, err := s.service.ListNavCategories(r.Context())
	if err != nil {
		slog.Warn("Failed to list nav categories", "error", err)
	}

	view := adminFormView{
		baseView:      baseView{Title: "Change record", Actor: actor},
		IsNew:         form.IsCreate(),
		Action:        adminAddPath,
		Form:          form,
		NavCategories: categories,
		Error:         errMsg,
	}
	if !view.IsNew {
		view.Action = changePath(form.ID)
		authorID := form.AuthorID
		if authorID == uuid.Nil {
			// Submitted forms carry no author; show the stored one.
			if stored, err := s.service.GetRecord(r.Context(), form.ID); err == nil {
				authorID = stored.AuthorID
			}
		}
		view.Author = s.authorName(r, authorID)
	} else {
		view.Title = "Add record"
	}
	s.views.render(w, r, status, "admin_form.html", view)
}

func (s *Server) authorName(r *http.Request, id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	user, err := s.users.GetUser(r.Context(), id)
	if err != nil {
		return id.String()
	}
	return user.Username
}

// parseRecordForm reads the change form. The author is never taken from the
// form; the saver assigns it from the acting user.
func parseRecordForm(r *http.Request, id uuid.UUID) (admin.SaveRequest, error) {
	form := admin.SaveRequest{ID: id}
	if err := r.ParseForm(); err != nil {
		return form, errors.New("invalid form submission")
	}

	form.URL = r.PostForm.Get("url")
	form.Name = r.PostForm.Get("name")
	form.Title = r.PostForm.Get("title")
	form.Description = r.PostForm.Get("description")
	form.Keywords = r.PostForm.Get("keywords")
	form.Content = r.PostForm.Get("content")
	form.Disabled = isChecked(r.PostForm.Get("disabled"))

	if raw := strings.TrimSpace(r.PostForm.Get("nav_category")); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return form, errors.New("invalid navigation category")
		}
		form.NavCategoryID = categoryID
	}
	return form, nil
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
