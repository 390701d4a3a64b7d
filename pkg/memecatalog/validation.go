package memecatalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength is the maximum asset name length in characters
const MaxNameLength = 100

// ValidateName checks the shape of an asset name
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !utf8.ValidString(name) {
		return &ValidationError{Field: "name", Reason: "must be valid UTF-8"}
	}
	if strings.ContainsRune(name, 0) {
		return &ValidationError{Field: "name", Reason: "must not contain NUL bytes"}
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters, got %d", MaxNameLength, n)}
	}
	return nil
}

// NewBlobKey returns a fresh random blob key. Keys are never derived from
// the asset name so a deleted asset's key can't collide with a future one.
func NewBlobKey() string {
	return uuid.NewString()
}
