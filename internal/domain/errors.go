package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidationFailed signals malformed query input, detected before any provider call.
	ErrValidationFailed = errors.New("validation failed")
	// ErrRetrievalFailed signals an embedding or vector search failure.
	ErrRetrievalFailed = errors.New("search unavailable")
	// ErrGenerationFailed signals an answer generation failure.
	ErrGenerationFailed = errors.New("answer generation unavailable")

	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDocument signals a corpus record that cannot become a Document.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrFilterNotApplied signals a store that returned matches outside the requested filter.
	ErrFilterNotApplied = errors.New("filter not applied by store")
	// ErrStoreUnavailable signals that the vector store could not be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted token budget.
	ErrEmbeddingQuotaExceeded = errors.New("token quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a completion provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)

// ValidationError wraps ErrValidationFailed with the violated constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidationFailed.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StageError reports which pipeline stage failed. Err keeps the typed cause,
// so errors.Is matches both the stage sentinel and the provider error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with the stage it happened in.
func NewStageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
