// Package apperrors defines the error taxonomy shared by repositories, services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an error for propagation and status mapping.
type Kind string

const (
	// KindValidation marks missing or malformed input. Never retryable.
	KindValidation Kind = "validation_error"
	// KindUnauthorized marks a missing or invalid account identity.
	KindUnauthorized Kind = "unauthorized"
	// KindNotFound marks a scoped lookup with no matching resource.
	KindNotFound Kind = "not_found"
	// KindConflict marks a uniqueness violation.
	KindConflict Kind = "conflict"
	// KindRateLimited marks a caller that exceeded its write budget.
	KindRateLimited Kind = "rate_limited"
	// KindStorage marks a transient infrastructure failure. Safe to retry.
	KindStorage Kind = "storage_error"
)

// Error is an application error carrying its kind, a caller-facing message,
// the offending fields (validation only) and the wrapped cause.
type Error struct {
	Kind    Kind              `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrRateLimited  = &Error{Kind: KindRateLimited}
	ErrStorage      = &Error{Kind: KindStorage}
)

// Validation builds a validation error naming every offending field.
func Validation(fields map[string]string) *Error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Error{
		Kind:    KindValidation,
		Message: "invalid or missing fields: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

// Invalid builds a validation error for a single field.
func Invalid(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// Unauthorized builds an authentication error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NotFound builds a not found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict builds a uniqueness conflict error.
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// RateLimited builds a rate limit error.
func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// Storage wraps an infrastructure failure.
func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindStorage for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// StatusCode maps err to an HTTP status code.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusServiceUnavailable
	}
}

// Public returns the caller-facing form of err. Unclassified errors and
// storage failures hide their cause.
func Public(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{Kind: appErr.Kind, Message: appErr.Message, Fields: appErr.Fields}
	}
	return &Error{Kind: KindStorage, Message: "temporarily unavailable, retry the request"}
}
