package qsd

import (
	"context"
	"html/template"

	"github.com/google/uuid"
)

// Service defines the main interface for quasi-static data
type Service interface {
	// Record operations
	CreateRecord(ctx context.Context, req CreateRecordRequest) (*Record, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	GetRecordByURL(ctx context.Context, url string) (*Record, error)
	UpdateRecord(ctx context.Context, req UpdateRecordRequest) (*Record, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error
	ListRecords(ctx context.Context, req ListRecordsRequest) ([]*Record, error)

	// Read path
	ResolvePage(ctx context.Context, url string) (*Page, error)
	RenderInline(ctx context.Context, key string) (template.HTML, error)
	RenderContent(content string) (template.HTML, error)

	// Nav category operations
	CreateNavCategory(ctx context.Context, req CreateNavCategoryRequest) (*NavCategory, error)
	GetNavCategory(ctx context.Context, id uuid.UUID) (*NavCategory, error)
	DefaultNavCategory(ctx context.Context) (*NavCategory, error)
	ListNavCategories(ctx context.Context) ([]*NavCategory, error)
}
