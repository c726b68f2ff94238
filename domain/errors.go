// domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrVideoNotFound          = errors.New("video not found")
	ErrResourceNotFound       = errors.New("resource not found")
	ErrStorageFailure         = errors.New("storage failure")
	ErrPoisonMessage          = errors.New("poison message")
	ErrConcurrentModification = errors.New("video was modified concurrently")
)

// StorageError wraps a blob store failure for one path.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorageFailure, e.Err} }
