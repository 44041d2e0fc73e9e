package domain

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Handlers translate these into user-facing
// responses; the underlying cause stays in the server log only.
var (
	ErrDuplicateEmail   = errors.New("a feedback entry with this email address already exists")
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrStoreWrite       = errors.New("record store write failed")
	ErrPhotoUpload      = errors.New("photo upload failed")
	ErrBlobDelete       = errors.New("photo removal failed")
	ErrNotFound         = errors.New("feedback not found")
)

// ValidationError marks user-correctable input problems.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
