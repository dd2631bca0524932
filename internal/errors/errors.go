// Package errors provides the coded domain errors used across the notes server.
//
// Services return these errors; the HTTP layer writes them as the standard
// error envelope:
//
//	{"status": "error", "message": "folder does not exist", "errors": ["..."]}
//
// Callers branch on the code rather than the message:
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    ...
//	}
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code is a machine-readable error code.
type Code string

// Error codes.
const (
	CodeValidation        Code = "VALIDATION"
	CodeFolderNotFound    Code = "FOLDER_NOT_FOUND"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeInvalidCredential Code = "INVALID_CREDENTIAL"
	CodeAccessDenied      Code = "ACCESS_DENIED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeConflict          Code = "CONFLICT"
	CodeTypeMismatch      Code = "TYPE_MISMATCH"
	CodeNotFound          Code = "NOT_FOUND"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeInternal          Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
//
// Duplicate usernames answer 403 rather than 409; existing clients depend on it.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeFolderNotFound:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeInvalidCredential, CodeAccessDenied:
		return http.StatusUnauthorized
	case CodeForbidden, CodeConflict, CodeTypeMismatch:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a user-facing message and optional
// per-rule details.
type Error struct {
	Code    Code
	Message string
	Details []string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus lets the error be returned straight from an API handler.
func (e *Error) GetStatus() int {
	return e.Code.HTTPStatus()
}

// envelope is the wire form of every failed response.
type envelope struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// MarshalJSON writes the error envelope. The cause is never serialized.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{
		Status:  "error",
		Message: e.Message,
		Errors:  e.Details,
	})
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrFolderNotFound    = &Error{Code: CodeFolderNotFound, Message: "folder does not exist"}
	ErrUnauthenticated   = &Error{Code: CodeUnauthenticated, Message: "not authenticated"}
	ErrInvalidCredential = &Error{Code: CodeInvalidCredential, Message: "invalid token"}
	ErrAccessDenied      = &Error{Code: CodeAccessDenied, Message: "access denied"}
	ErrForbidden         = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrConflict          = &Error{Code: CodeConflict, Message: "conflict"}
	ErrTypeMismatch      = &Error{Code: CodeTypeMismatch, Message: "content does not match note type"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrRateLimited       = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
)

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Validation creates a validation error listing every violated rule.
func Validation(msg string, details ...string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// FolderNotFound creates an error for a missing or foreign target folder.
func FolderNotFound(msg string) *Error {
	return &Error{Code: CodeFolderNotFound, Message: msg}
}

// Unauthenticated creates an error for a request carrying no credential.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// InvalidCredential creates an error for a credential that failed to resolve.
func InvalidCredential(msg string) *Error {
	return &Error{Code: CodeInvalidCredential, Message: msg}
}

// AccessDenied creates an error for reads the actor may not perform.
func AccessDenied(msg string) *Error {
	return &Error{Code: CodeAccessDenied, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// TypeMismatch creates a type mismatch error.
func TypeMismatch(msg string) *Error {
	return &Error{Code: CodeTypeMismatch, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}
