// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and the error-to-status taxonomy used by the connection handler.

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors used across the library.
var (
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrResourceExhausted = fmt.Errorf("resource exhausted")
	ErrOperationTimeout  = fmt.Errorf("operation timeout")
	ErrNotFound          = fmt.Errorf("resource not found")
)

// ErrorCode represents specific error conditions met while serving a request.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeProtocol
	ErrCodeUnsupportedMethod
	ErrCodePayload
	ErrCodeNotFound
	ErrCodeForbidden
	ErrCodeHandler
	ErrCodeIO
	ErrCodeTimeout
	ErrCodeOverloaded
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeProtocol:
		return "protocol"
	case ErrCodeUnsupportedMethod:
		return "unsupported_method"
	case ErrCodePayload:
		return "payload"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeForbidden:
		return "forbidden"
	case ErrCodeHandler:
		return "handler"
	case ErrCodeIO:
		return "io"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeOverloaded:
		return "overloaded"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status code the code is answered with.
func (c ErrorCode) Status() int {
	switch c {
	case ErrCodeOK:
		return http.StatusOK
	case ErrCodeProtocol, ErrCodePayload:
		return http.StatusBadRequest
	case ErrCodeUnsupportedMethod:
		return http.StatusMethodNotAllowed
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeOverloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapError creates a structured error around cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	e := NewError(code, message)
	e.Err = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf extracts the ErrorCode carried by err. Plain errors are ErrCodeHandler.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	if errors.Is(err, ErrOperationTimeout) {
		return ErrCodeTimeout
	}
	if errors.Is(err, ErrNotFound) {
		return ErrCodeNotFound
	}
	return ErrCodeHandler
}

// StatusFor maps err to the HTTP status it is answered with.
func StatusFor(err error) int {
	return CodeOf(err).Status()
}
