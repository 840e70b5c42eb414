package model

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError indicates invalid input
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return "invalid input: " + e.Message
}

// NewValidationError creates a ValidationError
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateTitle checks that a page title can be sent as a single title.
// The action API treats "|" as a title separator.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewValidationError("title", "", "must not be empty")
	}
	if strings.Contains(title, "|") {
		return NewValidationError("title", title, "must be a single title (contains '|')")
	}
	return nil
}
