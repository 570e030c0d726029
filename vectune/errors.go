package vectune

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates the boundary error kinds the engine can surface.
// Every operation that fails surfaces one of these; none are silent.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeDimensionMismatch
	ErrCodeDuplicateId
	ErrCodeIdNotFound // never constructed: delete/get report an unknown id as a bool, not this
	ErrCodeEmptyVector
	ErrCodeEmptyId
	ErrCodeAllocationFailed
	ErrCodeCorruptState
	ErrCodeIoError
	ErrCodeConfigurationFrozen
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeDimensionMismatch:
		return "DimensionMismatch"
	case ErrCodeDuplicateId:
		return "DuplicateId"
	case ErrCodeIdNotFound:
		return "IdNotFound"
	case ErrCodeEmptyVector:
		return "EmptyVector"
	case ErrCodeEmptyId:
		return "EmptyId"
	case ErrCodeAllocationFailed:
		return "AllocationFailed"
	case ErrCodeCorruptState:
		return "CorruptState"
	case ErrCodeIoError:
		return "IoError"
	case ErrCodeConfigurationFrozen:
		return "ConfigurationFrozen"
	default:
		return "Unknown"
	}
}

// Error is the structured error type returned at every API boundary.
// It always carries enough context to identify the offending input or
// file, per the propagation policy: the engine never retries IO or
// allocation internally, it surfaces the failure as-is.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Code extracts the ErrorCode from err, or ErrCodeUnknown if err is
// nil or not one of this package's errors.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

func newErr(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func errDimensionMismatch(expected, got int) error {
	return newErr(ErrCodeDimensionMismatch, "expected dimension %d, got %d", expected, got)
}

func errDuplicateId(id string) error {
	return newErr(ErrCodeDuplicateId, "id %q already exists", id)
}

func errEmptyVector() error {
	return newErr(ErrCodeEmptyVector, "vector must not be empty")
}

func errEmptyId() error {
	return newErr(ErrCodeEmptyId, "external id must not be empty")
}

func errAllocationFailed(component string, cause error) error {
	e := newErr(ErrCodeAllocationFailed, "allocation failed in %s", component)
	e.Cause = cause
	return e
}

func errCorruptState(reason, file string) error {
	if file != "" {
		return newErr(ErrCodeCorruptState, "%s (file %s)", reason, file)
	}
	return newErr(ErrCodeCorruptState, "%s", reason)
}

func errIoError(path string, cause error) error {
	e := newErr(ErrCodeIoError, "io failure at %s", path)
	e.Cause = cause
	return e
}

func errConfigurationFrozen(option string) error {
	return newErr(ErrCodeConfigurationFrozen, "option %q is immutable after first insert", option)
}
