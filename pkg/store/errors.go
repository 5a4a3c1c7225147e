package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get and Delete when no record is stored under
// the key.
var ErrNotFound = errors.New("record not found")

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // Storage backend ("sqlite", "memory")
	Operation string // Operation that failed ("put", "get", "stream", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
