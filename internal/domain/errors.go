package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidationFailed signals a malformed search query or request payload.
	ErrValidationFailed = errors.New("validation failed")
	// ErrSearchFailed signals that the embedding provider or the vector index failed.
	ErrSearchFailed = errors.New("search failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexUnavailable signals a vector index failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// ValidationError carries the offending field for a ErrValidationFailed condition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidationFailed.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
