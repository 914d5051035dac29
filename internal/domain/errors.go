package domain

import (
	"errors"
	"fmt"
)

// ErrStorageRead marks a store document that exists but cannot be decoded.
// Stores log it and fall back to an empty value; it never reaches callers.
var ErrStorageRead = errors.New("storage document unreadable")

// ValidationError reports a required request field that was not supplied.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing %s", e.Field)
}

// ResolutionError reports that no webcast id could be derived for a toggle.
type ResolutionError struct {
	ObjectID string
}

func (e *ResolutionError) Error() string {
	if e.ObjectID == "" {
		return "missing webcastId/objectID"
	}
	return fmt.Sprintf("no webcastId found for objectID %q", e.ObjectID)
}

// FetchError aborts a refresh run. Page is the page being requested when
// the upstream call failed.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
