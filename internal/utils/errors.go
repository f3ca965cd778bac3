package utils

import (
	"errors"
	"fmt"
)

// Common application errors used across services.
var (
	ErrDataLoad            = errors.New("DATA_LOAD_ERROR")
	ErrValidation          = errors.New("VALIDATION_ERROR")
	ErrInvalidPostalPrefix = errors.New("INVALID_POSTAL_PREFIX")
	ErrUnresolvedCanton    = errors.New("UNRESOLVED_CANTON")
	ErrAmbiguousCanton     = errors.New("AMBIGUOUS_CANTON")
)

// ValidationError reports an incomplete or malformed form field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
