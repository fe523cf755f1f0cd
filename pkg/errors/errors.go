package errors

import (
	"errors"
	"net/http"
)

// Error is an application failure with a stable machine code and the HTTP
// status it is reported with.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err == nil:
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is makes errors.Is match any *Error sharing the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func kind(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

var (
	ErrValidation         = kind("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized       = kind("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInvalidCredentials = kind("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid user id or password")
	ErrForbidden          = kind("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound           = kind("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrCacheMiss          = kind("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrConflict           = kind("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = kind("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrInternal           = kind("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Placement rule violations.
	ErrLimitExceeded   = kind("LIMIT_EXCEEDED", http.StatusConflict, "limit exceeded")
	ErrIneligibleMatch = kind("INELIGIBLE_MATCH", http.StatusUnprocessableEntity, "student is not eligible for this internship")
	ErrAlreadyPlaced   = kind("ALREADY_PLACED", http.StatusConflict, "student already holds a confirmed placement")
)

// Clone copies base, replacing its message when one is given.
func Clone(base *Error, message string) *Error {
	if base == nil {
		return nil
	}
	out := *base
	if message != "" {
		out.Message = message
	}
	return &out
}

// WithCause is Clone plus an underlying error kept for logs and errors.Is.
func WithCause(base *Error, cause error, message string) *Error {
	out := Clone(base, message)
	if out != nil {
		out.Err = cause
	}
	return out
}

// Is reports whether err is, or wraps, an *Error with target's code.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.Is(err, target)
}

// FromError returns the *Error inside err, or an internal error wrapping it.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return WithCause(ErrInternal, err, "")
}
