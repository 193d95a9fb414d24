package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidRequest = errors.New("invalid request body")
	ErrValidation     = errors.New("validation failed")

	// Aggregation contract violations. These are programming errors in the
	// caller that builds the request, not user input problems.
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrNotSupported    = errors.New("not supported")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStaleVersion is returned when an edit was prepared against an older
	// version of a problem than the one currently stored.
	ErrStaleVersion = errors.New("stale version")

	// ErrVersionConflict is returned by the record store when a conditional
	// update did not find the expected version.
	ErrVersionConflict = errors.New("version conflict")
)

type InvalidFilterError struct {
	Filter string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter '%s': %s", e.Filter, e.Reason)
}
func (e *InvalidFilterError) Is(target error) bool { return target == ErrInvalidFilter }

type NotSupportedError struct{ Reason string }

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("not supported: %s", e.Reason)
}
func (e *NotSupportedError) Is(target error) bool { return target == ErrNotSupported }

type InvalidArgumentError struct {
	Argument string
	Value    string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s '%s'", e.Argument, e.Value)
}
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
