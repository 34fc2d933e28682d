// Package errors implements the structured error code system used across
// the pipeline service.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): service/module code
//	BB  (00-99): category code
//	CCC (000-999): sequence number within the category
//
// Every error carries an HTTP status and a gRPC status code so that any
// transport can map it without inspecting message text. Codes are registered
// at init time and must be globally unique.
//
// Usage:
//
//	return errors.ErrInvalidParam.WithMessage("query text is required")
//	return errors.ErrGenerationFailed.WithCause(err)
package errors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Errno is a structured error with a stable code, transport status mappings,
// and an optional wrapped cause.
type Errno struct {
	// Code is the unique AABBCCC error code.
	Code int `json:"code"`

	// HTTP is the HTTP status to return for this error.
	HTTP int `json:"-"`

	// GRPCCode is the gRPC status code for this error.
	GRPCCode codes.Code `json:"-"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	cause error
}

// New creates a new Errno.
func New(code, httpStatus int, grpcCode codes.Code, message string) *Errno {
	return &Errno{
		Code:     code,
		HTTP:     httpStatus,
		GRPCCode: grpcCode,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of e carrying the given cause.
func (e *Errno) WithCause(cause error) *Errno {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithMessage returns a copy of e with a custom message.
func (e *Errno) WithMessage(msg string) *Errno {
	clone := *e
	clone.Message = msg
	return &clone
}

// WithMessagef returns a copy of e with a formatted message.
func (e *Errno) WithMessagef(format string, args ...interface{}) *Errno {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// HTTPStatus returns the HTTP status, defaulting to 500.
func (e *Errno) HTTPStatus() int {
	if e.HTTP != 0 {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

// GRPCStatus returns the gRPC status code, defaulting to Internal.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode != codes.OK {
		return e.GRPCCode
	}
	return codes.Internal
}

// Is reports whether target is an Errno with the same code, which makes
// errors.Is work across WithCause/WithMessage copies.
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}
