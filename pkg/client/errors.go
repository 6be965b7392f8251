package client

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by APIError.Is. Use errors.Is() to check.
var (
	ErrValidation            = errors.New("validation error")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrRateLimited           = errors.New("rate limited")
	ErrQuotaExceeded         = errors.New("token quota exceeded")
	ErrSearchUnavailable     = errors.New("search unavailable")
	ErrGenerationUnavailable = errors.New("answer generation unavailable")
	ErrRequestCancelled      = errors.New("request cancelled")
)

var codeSentinels = map[string]error{
	"validation_error":       ErrValidation,
	"unauthorized":           ErrUnauthorized,
	"rate_limited":           ErrRateLimited,
	"quota_exceeded":         ErrQuotaExceeded,
	"search_unavailable":     ErrSearchUnavailable,
	"generation_unavailable": ErrGenerationUnavailable,
	"request_cancelled":      ErrRequestCancelled,
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
	// Stage is the pipeline stage that failed, when the server reports one.
	Stage string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("carequery: %d %s: %s: %s", e.StatusCode, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("carequery: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is matches the sentinel for the error code.
func (e *APIError) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}
