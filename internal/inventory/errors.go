package inventory

import (
	"errors"
	"fmt"
)

// Draft field names used in ValidationError.
const (
	FieldName     = "name"
	FieldExpiry   = "expiry"
	FieldLocation = "location"
	FieldID       = "id"
)

// ValidationError reports why a draft cannot become a Record.
type ValidationError struct {
	// Field is the offending draft field.
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
