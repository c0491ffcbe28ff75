package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory is the stable machine-readable class of a failure.
// Every error surfaced to callers carries exactly one.
type ErrorCategory string

const (
	ErrValidation    ErrorCategory = "validation"
	ErrNotFound      ErrorCategory = "not_found"
	ErrToken         ErrorCategory = "token"
	ErrUpstreamParse ErrorCategory = "upstream_parse"
	ErrStore         ErrorCategory = "store"
)

// Error is a categorised failure with a human-readable message.
type Error struct {
	Category ErrorCategory
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports a missing or out-of-range field.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Category: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports an unresolvable employee or org unit.
func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Category: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewTokenError reports a proposal-token failure. Kept deliberately
// generic so callers learn nothing about why verification failed.
func NewTokenError(message string) *Error {
	return &Error{Category: ErrToken, Message: message}
}

// NewUpstreamParseError reports that the translator was unreachable or
// returned content that could not be interpreted.
func NewUpstreamParseError(message string, err error) *Error {
	return &Error{Category: ErrUpstreamParse, Message: message, Err: err}
}

// NewStoreError wraps an underlying persistence failure.
func NewStoreError(message string, err error) *Error {
	return &Error{Category: ErrStore, Message: message, Err: err}
}

// CategoryOf extracts the category from an error chain. Uncategorised
// errors count as store failures.
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ErrStore
}

// MessageOf returns the human-readable message of a categorised error,
// or the plain error text otherwise.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
