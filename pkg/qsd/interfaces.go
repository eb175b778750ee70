package qsd

import (
	"context"
	"html/template"

	"github.com/google/uuid"
)

// RecordRepository persists records.
type RecordRepository interface {
	CreateRecord(ctx context.Context, record *Record) error
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	// GetRecordByURL returns the record stored under url, enabled or not.
	GetRecordByURL(ctx context.Context, url string) (*Record, error)
	// GetRecordByName returns the most recently updated enabled record with the given name.
	GetRecordByName(ctx context.Context, name string) (*Record, error)
	UpdateRecord(ctx context.Context, record *Record) error
	DeleteRecord(ctx context.Context, id uuid.UUID) error
	ListRecords(ctx context.Context, filter ListRecordsRequest) ([]*Record, error)
}

// UserRepository persists user identities.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	ListUsers(ctx context.Context) ([]*User, error)
}

// NavCategoryRepository persists navigation categories.
type NavCategoryRepository interface {
	CreateNavCategory(ctx context.Context, category *NavCategory) error
	GetNavCategory(ctx context.Context, id uuid.UUID) (*NavCategory, error)
	GetNavCategoryByName(ctx context.Context, name string) (*NavCategory, error)
	ListNavCategories(ctx context.Context) ([]*NavCategory, error)
}

// Repository defines the interface for all QSD persistence
type Repository interface {
	RecordRepository
	UserRepository
	NavCategoryRepository
}

// Cache stores rendered pages under string keys.
//
// Fills are guarded by generations: callers take a Snapshot before reading
// the repository and pass it to SetWithGen, which drops the write when an
// Invalidate happened in between.
type Cache interface {
	Get(ctx context.Context, key string) (Page, bool, error)
	Snapshot(ctx context.Context, key string) (uint64, error)
	SetWithGen(ctx context.Context, key string, page Page, observedGen uint64) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Renderer turns stored record content into HTML.
type Renderer interface {
	Render(content string) (template.HTML, error)
}

// EventSink defines the interface for record change notifications
type EventSink interface {
	RecordCreated(ctx context.Context, record *Record) error
	RecordUpdated(ctx context.Context, record *Record) error
	RecordDeleted(ctx context.Context, record *Record) error
}
