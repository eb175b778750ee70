package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/qsd/pkg/qsd"
	"github.com/tendant/qsd/pkg/qsd/admin"
	"github.com/tendant/qsd/pkg/qsd/auth"
)

const maxRecordsPerRequest = 500

// TokenRequest is the request body for obtaining an API token
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the response body for an issued token
type TokenResponse struct {
	Token string `json:"token"`
}

// RecordRequest is the request body for creating or replacing a record
type RecordRequest struct {
	URL           string `json:"url"`
	Name          string `json:"name"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Keywords      string `json:"keywords"`
	Content       string `json:"content"`
	NavCategoryID string `json:"nav_category_id,omitempty"`
	Disabled      bool   `json:"disabled"`
}

// RecordResponse is the response body for a record
type RecordResponse struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	PageURL       string    `json:"page_url"`
	Name          string    `json:"name"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Keywords      string    `json:"keywords"`
	Content       string    `json:"content"`
	AuthorID      string    `json:"author_id"`
	NavCategoryID string    `json:"nav_category_id"`
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PreviewRequest is the request body for a markdown preview
type PreviewRequest struct {
	Content string `json:"content"`
}

// PreviewResponse is the response body for a markdown preview
type PreviewResponse struct {
	HTML string `json:"html"`
}

func (s *Server) apiRoutes(r chi.Router) {
	r.Post("/token", s.handleIssueToken)

	r.Group(func(r chi.Router) {
		r.Use(s.tokens.Middleware)

		r.Get("/qsd", s.handleListRecords)
		r.Get("/qsd/{id}", s.handleGetRecord)
		r.Post("/preview", s.handlePreview)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdminJSON)

			r.Post("/qsd", s.handleCreateRecord)
			r.Put("/qsd/{id}", s.handleUpdateRecord)
			r.Delete("/qsd/{id}", s.handleDeleteRecord)
		})
	})
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		renderError(w, r, "Token request rejected", err)
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		renderError(w, r, "Failed to issue token", err)
		return
	}
	render.JSON(w, r, TokenResponse{Token: token})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	query := r.URL.Query()

	req := qsd.ListRecordsRequest{
		URLPrefix:       query.Get("prefix"),
		IncludeDisabled: actor.IsAdmin(),
		Limit:           maxRecordsPerRequest,
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "invalid limit"})
			return
		}
		req.Limit = min(n, maxRecordsPerRequest)
	}
	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "invalid offset"})
			return
		}
		req.Offset = n
	}

	records, err := s.service.ListRecords(r.Context(), req)
	if err != nil {
		renderError(w, r, "Failed to list records", err)
		return
	}

	resp := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, newRecordResponse(record))
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	record, err := s.service.GetRecord(r.Context(), id)
	if err == nil && record.Disabled && !actor.IsAdmin() {
		err = qsd.ErrRecordNotFound
	}
	if err != nil {
		renderError(w, r, "Failed to get record", err)
		return
	}
	render.JSON(w, r, newRecordResponse(record))
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRecordRequest(w, r, uuid.Nil)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	record, err := s.saver.Save(r.Context(), actor, req)
	if err != nil {
		renderError(w, r, "Failed to create record", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newRecordResponse(record))
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(w, r)
	if !ok {
		return
	}
	req, ok := decodeRecordRequest(w, r, id)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	record, err := s.saver.Save(r.Context(), actor, req)
	if err != nil {
		renderError(w, r, "Failed to update record", err)
		return
	}
	render.JSON(w, r, newRecordResponse(record))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	if err := s.saver.Delete(r.Context(), actor, id); err != nil {
		renderError(w, r, "Failed to delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	html, err := s.service.RenderContent(req.Content)
	if err != nil {
		renderError(w, r, "Failed to render preview", err)
		return
	}
	render.JSON(w, r, PreviewResponse{HTML: string(html)})
}

func parseRecordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid record id"})
		return uuid.Nil, false
	}
	return id, true
}

func decodeRecordRequest(w http.ResponseWriter, r *http.Request, id uuid.UUID) (admin.SaveRequest, bool) {
	var body RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return admin.SaveRequest{}, false
	}

	req := admin.SaveRequest{
		ID:          id,
		URL:         body.URL,
		Name:        body.Name,
		Title:       body.Title,
		Description: body.Description,
		Keywords:    body.Keywords,
		Content:     body.Content,
		Disabled:    body.Disabled,
	}
	if body.NavCategoryID != "" {
		categoryID, err := uuid.Parse(body.NavCategoryID)
		if err != nil {
			renderError(w, r, "Invalid nav category", &qsd.ValidationError{Field: "nav_category_id", Message: "must be a uuid"})
			return admin.SaveRequest{}, false
		}
		req.NavCategoryID = categoryID
	}
	return req, true
}

func newRecordResponse(record *qsd.Record) RecordResponse {
	return RecordResponse{
		ID:            record.ID.String(),
		URL:           record.URL,
		PageURL:       qsd.PageURL(record.URL),
		Name:          record.Name,
		Title:         record.Title,
		Description:   record.Description,
		Keywords:      record.Keywords,
		Content:       record.Content,
		AuthorID:      record.AuthorID.String(),
		NavCategoryID: record.NavCategoryID.String(),
		Disabled:      record.Disabled,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}
