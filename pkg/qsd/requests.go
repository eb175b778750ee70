package qsd

import "github.com/google/uuid"

// CreateRecordRequest contains parameters for creating a record
type CreateRecordRequest struct {
	URL           string
	Name          string
	Title         string
	Description   string
	Keywords      string
	Content       string
	AuthorID      uuid.UUID
	NavCategoryID uuid.UUID // zero selects the default category
	Disabled      bool
}

// UpdateRecordRequest replaces every editable field of an existing record
type UpdateRecordRequest struct {
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

// ListRecordsRequest filters record listings. Zero values match everything.
type ListRecordsRequest struct {
	URLPrefix       string
	AuthorID        uuid.UUID
	IncludeDisabled bool
	Limit           int
	Offset          int
}

// CreateNavCategoryRequest contains parameters for creating a nav category
type CreateNavCategoryRequest struct {
	Name        string
	Description string
}

// UpdateRequestFromRecord builds an update request carrying the record's current values.
func UpdateRequestFromRecord(r *Record) UpdateRecordRequest {
	return UpdateRecordRequest{
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
