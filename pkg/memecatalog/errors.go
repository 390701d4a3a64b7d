package memecatalog

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrValidation indicates malformed input; it never has side effects
	ErrValidation = errors.New("validation failed")

	// ErrAssetNotFound indicates the referenced asset does not exist
	ErrAssetNotFound = errors.New("asset not found")

	// ErrDuplicateName indicates the name is already used by a live asset
	ErrDuplicateName = errors.New("asset name already exists")

	// ErrUpstreamStore indicates a failure talking to the blob store or the metadata store
	ErrUpstreamStore = errors.New("upstream store error")

	// ErrBlobNotFound is returned by blob stores when a key does not exist
	ErrBlobNotFound = errors.New("blob not found")
)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AssetError represents an error related to a specific asset
type AssetError struct {
	ID   int64
	Name string
	Op   string
	Err  error
}

func (e *AssetError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("asset operation %s failed for name %q: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("asset operation %s failed for asset %d: %v", e.Op, e.ID, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// StorageError represents a failed blob store call. It matches both
// ErrUpstreamStore and the underlying cause.
type StorageError struct {
	Bucket string
	Key    string
	Op     string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s in bucket %s: %v", e.Op, e.Key, e.Bucket, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrUpstreamStore, e.Err}
}

// RepositoryError represents a failed metadata store call other than a
// not-found or duplicate-name outcome.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository operation %s failed: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() []error {
	return []error{ErrUpstreamStore, e.Err}
}

// wrapRepositoryError keeps not-found and duplicate outcomes in kind and
// classifies everything else as an upstream failure.
func wrapRepositoryError(op string, err error) error {
	if errors.Is(err, ErrAssetNotFound) || errors.Is(err, ErrDuplicateName) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}
