package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the machine-readable error classification carried to clients.
type Kind string

const (
	// KindValidation - malformed input or a business rule broken before any
	// shared state was touched.
	KindValidation Kind = "validation_error"
	// KindConflict - a shared-state race lost at commit time. Retryable.
	KindConflict Kind = "conflict"
	// KindNotFound - a referenced entity does not exist.
	KindNotFound Kind = "not_found"
	// KindPermission - the caller lacks the required role or ownership.
	KindPermission Kind = "permission_denied"
	// KindAuthentication - missing or invalid credentials.
	KindAuthentication Kind = "authentication_error"
)

// Error is the structured application error. Fields carries field-keyed
// messages for validation failures; seat conflicts enumerate the problematic
// seat identifiers there as well so clients can re-render the seat map.
type Error struct {
	Kind    Kind                `json:"kind"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// Validation builds a field-keyed validation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// ValidationField builds a validation error keyed to one field.
func ValidationField(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Fields:  map[string][]string{field: {message}},
	}
}

// WithField attaches an additional field message.
func (e *Error) WithField(field string, messages ...string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], messages...)
	return e
}

// Conflict builds a retryable commit-time conflict error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NotFound builds a missing-entity error.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Permission builds a permission-denied error.
func Permission(message string) *Error {
	return &Error{Kind: KindPermission, Message: message}
}

// Authentication builds an invalid-credentials error.
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// As extracts an *Error from any error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
