// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error types and error handling utilities for hostbridge.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrInterestExists  = fmt.Errorf("interest already registered for descriptor")
	ErrTaskCompleted   = fmt.Errorf("task already completed")
	ErrExecutorClosed  = fmt.Errorf("executor is closed")
	ErrStreamClosed    = fmt.Errorf("stream is closed")
	ErrPoolReleased    = fmt.Errorf("pool handle fully released")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrUnknownColumn   = fmt.Errorf("unknown column kind")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeInterestExists
	ErrCodeTaskCompleted
	ErrCodeDecode
	ErrCodeIO
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
