// Package admin implements the authoring path for records: every edit made
// through the admin form or the JSON API passes through a Saver, whose
// interceptors enforce rules about the acting user before the record is
// persisted.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/qsd/pkg/qsd"
)

// SaveRequest is a record as submitted by an editor. A zero ID creates a new record.
type SaveRequest struct {
	ID            uuid.UUID
	URL           string
	Name          string
	Title         string
	Description   string
	Keywords      string
	Content       string
	AuthorID      uuid.UUID
	NavCategoryID uuid.UUID
	Disabled      bool
}

// IsCreate reports whether the request creates a new record.
func (r *SaveRequest) IsCreate() bool {
	return r.ID == uuid.Nil
}

// RequestFromRecord returns a save request carrying the record's current values.
func RequestFromRecord(r *qsd.Record) SaveRequest {
	return SaveRequest{
		ID:            r.ID,
		URL:           r.URL,
		Name:          r.Name,
		Title:         r.Title,
		Description:   r.Description,
		Keywords:      r.Keywords,
		Content:       r.Content,
		AuthorID:      r.AuthorID,
		NavCategoryID: r.NavCategoryID,
		Disabled:      r.Disabled,
	}
}

// Interceptor adjusts or rejects a save before it reaches the service.
type Interceptor func(ctx context.Context, actor *qsd.User, req *SaveRequest) error

// AssignAuthor makes the acting user the author of every record they save,
// including unchanged resubmissions of someone else's record.
func AssignAuthor(_ context.Context, actor *qsd.User, req *SaveRequest) error {
	req.AuthorID = actor.ID
	return nil
}

// RequireAdministrator rejects actors without the Administrator role.
func RequireAdministrator(_ context.Context, actor *qsd.User, _ *SaveRequest) error {
	if !actor.IsAdmin() {
		return qsd.ErrForbidden
	}
	return nil
}

// DefaultInterceptors is the pipeline used when none is configured.
func DefaultInterceptors() []Interceptor {
	return []Interceptor{RequireAdministrator, AssignAuthor}
}

// Saver persists editor submissions through a qsd.Service.
type Saver struct {
	service      qsd.Service
	interceptors []Interceptor
	logger       *slog.Logger
}

// SaverOption configures a Saver
type SaverOption func(*Saver)

// WithInterceptors replaces the interceptor pipeline
func WithInterceptors(interceptors ...Interceptor) SaverOption {
	return func(s *Saver) {
		s.interceptors = interceptors
	}
}

// WithLogger sets the logger used for audit messages
func WithLogger(l *slog.Logger) SaverOption {
	return func(s *Saver) {
		s.logger = l
	}
}

// NewSaver creates a Saver over svc.
func NewSaver(svc qsd.Service, options ...SaverOption) *Saver {
	s := &Saver{
		service:      svc,
		interceptors: DefaultInterceptors(),
		logger:       slog.Default(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Save runs the interceptors and creates or updates the record as actor.
func (s *Saver) Save(ctx context.Context, actor *qsd.User, req SaveRequest) (*qsd.Record, error) {
	if actor == nil {
		return nil, qsd.ErrForbidden
	}

	for _, intercept := range s.interceptors {
		if err := intercept(ctx, actor, &req); err != nil {
			return nil, err
		}
	}

	var (
		record *qsd.Record
		err    error
	)
	if req.IsCreate() {
		record, err = s.service.CreateRecord(ctx, qsd.CreateRecordRequest{
			URL:           req.URL,
			Name:          req.Name,
			Title:         req.Title,
			Description:   req.Description,
			Keywords:      req.Keywords,
			Content:       req.Content,
			AuthorID:      req.AuthorID,
			NavCategoryID: req.NavCategoryID,
			Disabled:      req.Disabled,
		})
	} else {
		record, err = s.service.UpdateRecord(ctx, qsd.UpdateRecordRequest{
			ID:            req.ID,
			URL:           req.URL,
			Name:          req.Name,
			Title:         req.Title,
			Description:   req.Description,
			Keywords:      req.Keywords,
			Content:       req.Content,
			AuthorID:      req.AuthorID,
			NavCategoryID: req.NavCategoryID,
			Disabled:      req.Disabled,
		})
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Record saved",
		"record_id", record.ID,
		"url", record.URL,
		"actor", actor.Username,
		"created", req.IsCreate())
	return record, nil
}

// Delete removes a record as actor. Only administrators may delete.
func (s *Saver) Delete(ctx context.Context, actor *qsd.User, id uuid.UUID) error {
	if actor == nil || !actor.IsAdmin() {
		return qsd.ErrForbidden
	}
	if err := s.service.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Record deleted", "record_id", id, "actor", actor.Username)
	return nil
}
