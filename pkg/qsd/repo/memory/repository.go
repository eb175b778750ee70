package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/qsd/pkg/qsd"
)

// Repository implements qsd.Repository using in-memory storage
type Repository struct {
	mu            sync.RWMutex
	records       map[uuid.UUID]*qsd.Record
	recordsByURL  map[string]uuid.UUID
	users         map[uuid.UUID]*qsd.User
	usersByName   map[string]uuid.UUID
	navCategories map[uuid.UUID]*qsd.NavCategory
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		records:       make(map[uuid.UUID]*qsd.Record),
		recordsByURL:  make(map[string]uuid.UUID),
		users:         make(map[uuid.UUID]*qsd.User),
		usersByName:   make(map[string]uuid.UUID),
		navCategories: make(map[uuid.UUID]*qsd.NavCategory),
	}
}

var _ qsd.Repository = (*Repository)(nil)

// Record operations

func (r *Repository) CreateRecord(ctx context.Context, record *qsd.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.recordsByURL[record.URL]; exists {
		return qsd.ErrDuplicateURL
	}

	// Create a copy to avoid external modifications
	recordCopy := *record
	r.records[record.ID] = &recordCopy
	r.recordsByURL[record.URL] = record.ID
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (*qsd.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, qsd.ErrRecordNotFound
	}
	recordCopy := *record
	return &recordCopy, nil
}

func (r *Repository) GetRecordByURL(ctx context.Context, url string) (*qsd.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.recordsByURL[url]
	if !exists {
		return nil, qsd.ErrRecordNotFound
	}
	recordCopy := *r.records[id]
	return &recordCopy, nil
}

func (r *Repository) GetRecordByName(ctx context.Context, name string) (*qsd.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *qsd.Record
	for _, record := range r.records {
		if record.Name != name || record.Disabled {
			continue
		}
		if found == nil || record.UpdatedAt.After(found.UpdatedAt) {
			found = record
		}
	}
	if found == nil {
		return nil, qsd.ErrRecordNotFound
	}
	recordCopy := *found
	return &recordCopy, nil
}

func (r *Repository) UpdateRecord(ctx context.Context, record *qsd.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.records[record.ID]
	if !exists {
		return qsd.ErrRecordNotFound
	}
	if owner, taken := r.recordsByURL[record.URL]; taken && owner != record.ID {
		return qsd.ErrDuplicateURL
	}

	delete(r.recordsByURL, existing.URL)
	recordCopy := *record
	r.records[record.ID] = &recordCopy
	r.recordsByURL[record.URL] = record.ID
	return nil
}

func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.records[id]
	if !exists {
		return qsd.ErrRecordNotFound
	}
	delete(r.recordsByURL, record.URL)
	delete(r.records, id)
	return nil
}

func (r *Repository) ListRecords(ctx context.Context, filter qsd.ListRecordsRequest) ([]*qsd.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*qsd.Record
	for _, record := range r.records {
		if record.Disabled && !filter.IncludeDisabled {
			continue
		}
		if filter.URLPrefix != "" && !strings.HasPrefix(record.URL, filter.URLPrefix) {
			continue
		}
		if filter.AuthorID != uuid.Nil && record.AuthorID != filter.AuthorID {
			continue
		}
		recordCopy := *record
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].URL < result[j].URL
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *qsd.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByName[user.Username]; exists {
		return qsd.ErrDuplicateUsername
	}
	userCopy := copyUser(user)
	r.users[user.ID] = userCopy
	r.usersByName[user.Username] = user.ID
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*qsd.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, qsd.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*qsd.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByName[username]
	if !exists {
		return nil, qsd.ErrUserNotFound
	}
	return copyUser(r.users[id]), nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *qsd.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.users[user.ID]
	if !exists {
		return qsd.ErrUserNotFound
	}
	if owner, taken := r.usersByName[user.Username]; taken && owner != user.ID {
		return qsd.ErrDuplicateUsername
	}
	delete(r.usersByName, existing.Username)
	r.users[user.ID] = copyUser(user)
	r.usersByName[user.Username] = user.ID
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*qsd.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*qsd.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, copyUser(user))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result, nil
}

func copyUser(u *qsd.User) *qsd.User {
	userCopy := *u
	userCopy.Roles = append([]string(nil), u.Roles...)
	return &userCopy
}

// Nav category operations

func (r *Repository) CreateNavCategory(ctx context.Context, category *qsd.NavCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	categoryCopy := *category
	r.navCategories[category.ID] = &categoryCopy
	return nil
}

func (r *Repository) GetNavCategory(ctx context.Context, id uuid.UUID) (*qsd.NavCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, exists := r.navCategories[id]
	if !exists {
		return nil, qsd.ErrNavCategoryNotFound
	}
	categoryCopy := *category
	return &categoryCopy, nil
}

func (r *Repository) GetNavCategoryByName(ctx context.Context, name string) (*qsd.NavCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, category := range r.navCategories {
		if category.Name == name {
			categoryCopy := *category
			return &categoryCopy, nil
		}
	}
	return nil, qsd.ErrNavCategoryNotFound
}

func (r *Repository) ListNavCategories(ctx context.Context) ([]*qsd.NavCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*qsd.NavCategory, 0, len(r.navCategories))
	for _, category := range r.navCategories {
		categoryCopy := *category
		result = append(result, &categoryCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}
