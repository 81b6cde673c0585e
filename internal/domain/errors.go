package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes. The handler package maps each to an HTTP status.
const (
	EINVALID      = "invalid"
	EUNAUTHORIZED = "unauthorized" // backend rejected the API token
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	ECONFLICT     = "conflict"
	ETOOLARGE     = "too_large"
	ERATELIMIT    = "rate_limit"
	EUNAVAILABLE  = "unavailable" // backend unreachable or 5xx
	EINTERNAL     = "internal"
)

// MsgUnexpected is shown when the backend gives no message of its own.
const MsgUnexpected = "An unexpected error occurred"

const msgInternal = "An internal error occurred. Please try again later."

// Error is a coded failure. Op names the operation in entity.verb form,
// e.g. "category.create"; Message is safe to show unless Code is
// EINTERNAL.
type Error struct {
	Code    string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf creates an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode classifies err. Validation failures are EINVALID and
// anything uncoded is EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the text to show the admin. List-view kinds carry
// their own display messages; internal and uncoded errors never leak.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var fe *FetchError
	var me *MutationError
	var le *LookupError
	var e *Error
	switch {
	case errors.As(err, &fe):
		return fe.Message
	case errors.As(err, &me):
		return me.Message
	case errors.As(err, &le):
		return le.Message()
	case errors.As(err, &e) && e.Code != EINTERNAL:
		return e.Message
	}
	return msgInternal
}

// ErrorOp returns the Op of the outermost coded error.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// NotFound reports a missing record, e.g. `product with ID "p1" not found`.
func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s with ID %q not found", resource, id)
}

// Invalid reports input rejected before any field-level check applies.
func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Internal wraps an unexpected failure. Its message is logged, not shown.
func Internal(err error, op, message string) *Error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// RateLimit reports a throttled write.
func RateLimit(op string) *Error {
	return &Error{Code: ERATELIMIT, Op: op, Message: "Too many requests. Please try again later."}
}

// ValidationError maps form field names to messages.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return e.Op + ": validation failed"
}

// NewValidationError creates a ValidationError with one field message.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// FieldErrors returns the field map of a ValidationError, or nil.
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// =============================================================================
// List View Error Kinds
// =============================================================================

// FetchError is a failed read of a primary collection. It is rendered inline
// with a retry affordance.
type FetchError struct {
	Entity  string // plural entity name, e.g. "categories"
	Message string // display message
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.Entity, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError is a failed create, update, delete or upload.
type MutationError struct {
	Op        string // e.g. "category.create"
	Message   string // display message, already rewritten if needed
	Duplicate bool   // backend reported a duplicate name
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *MutationError) Unwrap() error { return e.Err }

// LookupError is a failed secondary fetch. It never blocks rendering.
type LookupError struct {
	Lookup string // e.g. "category names"
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.Lookup, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Message returns the warning shown to the user.
func (e *LookupError) Message() string {
	return fmt.Sprintf("Could not load %s; some values are shown as unknown.", e.Lookup)
}

// IsDuplicateMessage reports whether a backend message describes a
// duplicate-name collision.
func IsDuplicateMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "duplicate")
}

// FriendlyMutationMessage rewrites duplicate-name messages and passes every
// other backend message through. An empty message becomes the generic
// fallback.
func FriendlyMutationMessage(entity, msg string) string {
	if IsDuplicateMessage(msg) {
		return fmt.Sprintf("A %s with this name already exists. Please choose a different name.", entity)
	}
	if strings.TrimSpace(msg) == "" {
		return MsgUnexpected
	}
	return msg
}
