package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DukeRupert/catalog-admin/internal/domain"
)

// Sentinel errors for backend calls
var (
	// ErrUnavailable indicates the backend could not be reached or failed
	// with a 5xx status.
	ErrUnavailable = errors.New("backend temporarily unavailable")

	// ErrRateLimited indicates the backend answered 429.
	ErrRateLimited = errors.New("backend rate limit exceeded")

	// ErrRejected indicates the backend answered with an error envelope or
	// a 4xx status.
	ErrRejected = errors.New("backend rejected the request")

	// ErrMalformed indicates a response that does not match the envelope
	// contract (bad JSON, unknown status, missing data key).
	ErrMalformed = errors.New("malformed backend response")
)

// Error describes a failed backend call.
type Error struct {
	Method  string
	Path    string
	Status  int    // HTTP status, 0 when no response arrived
	Message string // message from the error envelope, if any
	Err     error  // one of the sentinels above, possibly wrapping a cause
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %v", e.Method, e.Path, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %d: %v", e.Method, e.Path, e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code maps the failure onto an application error code.
func (e *Error) Code() string {
	switch {
	case errors.Is(e.Err, ErrRateLimited):
		return domain.ERATELIMIT
	case errors.Is(e.Err, ErrUnavailable):
		return domain.EUNAVAILABLE
	}
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.EINVALID
	case http.StatusUnauthorized:
		return domain.EUNAUTHORIZED
	case http.StatusForbidden:
		return domain.EFORBIDDEN
	case http.StatusNotFound:
		return domain.ENOTFOUND
	case http.StatusConflict:
		return domain.ECONFLICT
	case http.StatusRequestEntityTooLarge:
		return domain.ETOOLARGE
	}
	if domain.IsDuplicateMessage(e.Message) {
		return domain.ECONFLICT
	}
	return domain.EINTERNAL
}

// IsRetryable returns true if the error is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited)
}

// Message returns the backend's own message for err, or "" if it sent none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// IsTransport reports whether err happened before any response arrived.
func IsTransport(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Status == 0
	}
	return false
}

// Code returns the application error code for err.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return domain.ErrorCode(err)
}

// IsEnvelope reports whether a response arrived with a success status but its
// envelope reported an error or broke the contract.
func IsEnvelope(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Status >= 200 && e.Status < 300
	}
	return false
}
