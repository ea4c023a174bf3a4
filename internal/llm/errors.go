package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies backend failures for retry and status mapping
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransient
	KindSafety
	KindConfiguration
	KindInvalidRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindSafety:
		return "safety"
	case KindConfiguration:
		return "configuration"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

var (
	// ErrNotConfigured is returned when the backend has no credentials
	ErrNotConfigured = errors.New("generation backend is not configured")

	// ErrEmptyResponse is returned when the backend answers with blank text
	ErrEmptyResponse = errors.New("empty response from generation backend")
)

// BackendError wraps a backend failure with its classification
type BackendError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s backend error: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewStatusError classifies err by the HTTP status the backend reported
func NewStatusError(status int, err error) *BackendError {
	return &BackendError{Kind: KindForStatus(status), StatusCode: status, Err: err}
}

// KindForStatus maps an HTTP status onto an error kind.
// Only 429 and 503 are retried.
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return KindTransient
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindConfiguration
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

// KindOf returns the classification of err, or KindUnknown
func KindOf(err error) ErrorKind {
	if errors.Is(err, ErrNotConfigured) {
		return KindConfiguration
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
