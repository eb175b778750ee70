package qsd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrRecordNotFound indicates no enabled record matched the lookup
	ErrRecordNotFound = errors.New("record not found")

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrNavCategoryNotFound indicates a navigation category was not found
	ErrNavCategoryNotFound = errors.New("nav category not found")

	// ErrDuplicateURL indicates another record already owns the URL
	ErrDuplicateURL = errors.New("record with this url already exists")

	// ErrDuplicateUsername indicates another user already owns the username
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidRecord indicates a record failed validation
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidCredentials indicates a failed login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden indicates the actor may not perform the operation
	ErrForbidden = errors.New("forbidden")
)

// RecordError represents an error related to record operations
type RecordError struct {
	RecordID uuid.UUID
	Op       string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record operation %s failed for record %s: %v", e.Op, e.RecordID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ValidationError reports which field of a record is invalid.
// It matches ErrInvalidRecord with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecord
}
