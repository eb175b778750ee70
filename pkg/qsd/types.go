package qsd

import (
	"html/template"
	"time"

	"github.com/google/uuid"
)

// Role names understood by the service.
const (
	RoleAdministrator = "Administrator"
	RoleTeacher       = "Teacher"
	RoleStudent       = "Student"
)

// DefaultNavCategoryName is the category assigned to records created without one.
const DefaultNavCategoryName = "default"

// Record is a single quasi-static data entry.
//
// URL is stored normalized (see NormalizeURL), e.g. "learn/foo" for the page
// served at /learn/foo.html.
type Record struct {
	ID            uuid.UUID `json:"id"`
	URL           string    `json:"url"`
	Name          string    `json:"name"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Keywords      string    `json:"keywords"`
	Content       string    `json:"content"`
	AuthorID      uuid.UUID `json:"author_id"`
	NavCategoryID uuid.UUID `json:"nav_category_id"`
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Page is the rendered form of a record, as served and cached.
type Page struct {
	RecordID    uuid.UUID     `msgpack:"record_id" json:"record_id"`
	URL         string        `msgpack:"url" json:"url"`
	Name        string        `msgpack:"name" json:"name"`
	Title       string        `msgpack:"title" json:"title"`
	Description string        `msgpack:"description" json:"description"`
	Keywords    string        `msgpack:"keywords" json:"keywords"`
	HTML        template.HTML `msgpack:"html" json:"html"`
	NavCategory string        `msgpack:"nav_category" json:"nav_category"`
	UpdatedAt   time.Time     `msgpack:"updated_at" json:"updated_at"`
}

// User is an identity that can author records.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin returns true if the user has the Administrator role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdministrator)
}

// NavCategory groups records in the navigation menu.
type NavCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}
