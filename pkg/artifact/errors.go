package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned when an action token is neither "keep" nor "delete".
	ErrUnknownAction = errors.New("unknown action")

	// ErrDeletionFailed is returned by a run in which at least one package
	// could not be deleted.
	ErrDeletionFailed = errors.New("package deletion failed")
)

// StorageError represents an error from a blob-storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("gcs", "s3", "memory")
	Operation string // Operation that failed ("list", "delete")
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

// DeletionError records a package whose deletion failed during a run.
type DeletionError struct {
	Package Package
	Cause   error
}

// Error implements the error interface.
func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Package, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DeletionError) Unwrap() error {
	return e.Cause
}
