package models

import (
	"errors"
	"fmt"
)

// ValidationError rejects a malformed scrape payload or request body
// before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %v", e.Entity, e.ID)
}

// ConflictError reports a unique-constraint violation, e.g. creating
// alert preferences for a user who already has them.
type ConflictError struct {
	Entity string
	Reason string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s %s", e.Entity, e.Reason)
}

// UpstreamError wraps a failure from a scrape source. It is caught per
// store or per search term and never aborts sibling work.
type UpstreamError struct {
	Store string
	Err   error
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Store, e.Err)
}

func (e UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}
