package models

import "errors"

var (
	// ErrNotFound is returned when a resource id does not resolve.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation is returned for malformed requests, checked before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrAccessDenied is returned when the actor lacks the level a mutation requires.
	ErrAccessDenied = errors.New("access denied")

	// ErrFolderNotEmpty is returned when deleting a folder that still has children.
	ErrFolderNotEmpty = errors.New("folder is not empty")

	// ErrStorage marks persistence failures. Match with errors.Is.
	ErrStorage = errors.New("storage error")
)

// StorageError carries the underlying driver error of a failed persistence call.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
