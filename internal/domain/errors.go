package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	ErrExtractionEmpty = errors.New("no extractable text in document")
	ErrEmptyText       = errors.New("document text is empty")
	ErrCountMismatch   = errors.New("embedding count does not match input count")
	ErrInvalidChunking = errors.New("invalid chunking parameters")
	ErrModelMismatch   = errors.New("embedding model differs from index model")
)

// ServiceError wraps any failure of an embedding or completion call.
type ServiceError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError builds a ServiceError, returning nil when err is nil.
func NewServiceError(provider, op string, status int, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Provider: provider, Op: op, StatusCode: status, Err: err}
}

// IsServiceError reports whether err came from an external model service.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
