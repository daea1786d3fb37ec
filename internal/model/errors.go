package model

import (
	"errors"
	"fmt"
)

var (
	ErrNoGroupKey                 = errors.New("one of headers|context|params|variables|tags|ctime|in-order has to be specified")
	ErrExclusiveDimensions        = errors.New("creation time grouping cannot be combined with attribute grouping")
	ErrMissingBreadcrumbAttribute = errors.New("invalid breadcrumb attribute")
	ErrNoPatterns                 = errors.New("breadcrumb order key requires at least one pattern")
)

// UserError is a request problem the user has to fix. Commands exit non-zero
// on it without doing any work.
type UserError struct {
	Err error
}

func (e *UserError) Error() string { return e.Err.Error() }
func (e *UserError) Unwrap() error { return e.Err }

// UserErrorf builds a UserError from a format string. %w is honoured.
func UserErrorf(format string, args ...any) error {
	return &UserError{Err: fmt.Errorf(format, args...)}
}

// AsUserError wraps err unless it already is a UserError.
func AsUserError(err error) error {
	if err == nil {
		return nil
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return err
	}
	return &UserError{Err: err}
}

// IsUserError reports whether err carries a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}
