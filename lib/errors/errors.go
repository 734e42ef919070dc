// Package errors provides structured error types for the connpool library.
// All errors are designed to be safe to log and report without exposing
// backend addresses or credentials.
//
// This package provides:
//   - Sentinel errors for common pool failure conditions
//   - Error codes for categorizing failures in stats and logs
//   - Error wrapping with context preservation
//   - Safe error messages that don't leak connection details
package errors

import (
	"errors"
	"fmt"

	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// Error codes for categorizing errors. General codes live in the 1-9
// range, pool lifecycle codes in the 10-19 range.
const (
	// General error codes
	CodeInternal      = 1 // Unclassified internal failure
	CodeInvalidInput  = 2 // Invalid argument
	CodeConfiguration = 3 // Configuration rejected
	CodeTimeout       = 4 // Operation timed out

	// Pool lifecycle error codes
	CodePoolClosed    = 10 // Pool has been closed
	CodePoolExhausted = 11 // Every slot busy and the wait timed out
	CodeConnInvalid   = 12 // Handle was invalidated by a release or claim
	CodeBadBackend    = 13 // Backend kept producing dead connections
	CodeUnavailable   = 14 // Backend refused service
	CodeCircuitOpen   = 15 // Circuit breaker rejected the attempt
	CodeOpenFailed    = 16 // Opening a new backend connection failed
	CodeClosed        = 17 // Component already closed
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrConnInvalid indicates an operation on a handle that has been
	// released or invalidated.
	ErrConnInvalid = errors.New("resource is invalid")

	// ErrPoolExhausted indicates every slot was busy and no handle was
	// freed within the wait timeout.
	ErrPoolExhausted = errors.New("pool exhausted")

	// ErrPoolClosed indicates an operation on a closed pool.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrBadBackend indicates the backend kept handing out connections
	// that failed validation.
	ErrBadBackend = errors.New("too many bad connections")

	// ErrBackendUnavailable indicates the backend refused service.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrCircuitOpen indicates the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrConfiguration indicates a configuration error.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed indicates a component is closed.
	ErrClosed = errors.New("closed")

	// ErrInternal indicates an internal error.
	ErrInternal = errors.New("internal error")
)

// Pool-specific errors
var (
	// ErrNilFactory indicates a pool was constructed without a factory.
	ErrNilFactory = fmt.Errorf("pool: factory %w", ErrInvalidInput)

	// ErrNilConfig indicates a pool was constructed without a configuration.
	ErrNilConfig = fmt.Errorf("pool: config %w", ErrInvalidInput)

	// ErrForeignConn indicates a handle was released to a pool that did
	// not issue it.
	ErrForeignConn = errors.New("pool: handle belongs to another pool")
)

// Watcher errors
var (
	// ErrWatcherClosed indicates the config watcher is closed.
	ErrWatcherClosed = fmt.Errorf("watch: %w", ErrClosed)

	// ErrWatchPathEmpty indicates no config path was given to watch.
	ErrWatchPathEmpty = fmt.Errorf("watch: path %w", ErrInvalidInput)
)

// Error is a structured error with a code and safe message.
// It implements the error interface and keeps the underlying cause
// available for debugging without leaking it into summaries.
type Error struct {
	// Code is the error code for categorization
	Code int
	// Message is a safe, loggable error message
	Message string
	// Err is the underlying error (kept out of SafeMessage)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// SafeMessage returns an error message without internal details.
// Dial errors carry backend addresses and occasionally credentials in
// DSN form, so summaries shown to operators use this instead of Error().
func (e *Error) SafeMessage() string {
	return e.Message
}

// New creates a new structured error with the given code and message.
// The message should not contain backend addresses or credentials.
func New(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and safe message.
// The original error is preserved for debugging but kept out of the
// safe message.
func Wrap(code int, message string, err error) *Error {
	if err != nil {
		log.WithField("code", code).WithError(err).Debug("wrapping error")
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WrapInternal wraps an internal error with a generic message.
// Use this when the original error contains sensitive information.
func WrapInternal(err error) *Error {
	if err != nil {
		log.WithError(err).Debug("wrapping internal error")
	}
	return &Error{
		Code:    CodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// FromSentinel creates a structured error from a sentinel error.
// It automatically assigns an appropriate error code based on the error type.
func FromSentinel(err error) *Error {
	if err == nil {
		return nil
	}

	code := codeFromError(err)
	return &Error{
		Code:    code,
		Message: err.Error(),
		Err:     err,
	}
}

// codeFromError maps sentinel errors to error codes. The circuit
// breaker check runs before the general unavailable check because an
// open breaker usually wraps an unavailable backend.
func codeFromError(err error) int {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return CodeCircuitOpen
	case errors.Is(err, ErrConnInvalid):
		return CodeConnInvalid
	case errors.Is(err, ErrPoolExhausted):
		return CodePoolExhausted
	case errors.Is(err, ErrPoolClosed):
		return CodePoolClosed
	case errors.Is(err, ErrBadBackend):
		return CodeBadBackend
	case errors.Is(err, ErrBackendUnavailable):
		return CodeUnavailable
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrClosed):
		return CodeClosed
	default:
		return CodeInternal
	}
}

// IsInvalid returns true if the error indicates an invalidated handle.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrConnInvalid)
}

// IsExhausted returns true if the error indicates the pool ran out of slots.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrPoolExhausted)
}

// IsPoolClosed returns true if the error indicates the pool is closed.
func IsPoolClosed(err error) bool {
	return errors.Is(err, ErrPoolClosed)
}

// IsBadBackend returns true if the error indicates the backend kept
// producing dead connections.
func IsBadBackend(err error) bool {
	return errors.Is(err, ErrBadBackend)
}

// IsUnavailable returns true if the error indicates the backend refused service.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCircuitOpen returns true if the error indicates an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsConfiguration returns true if the error indicates a rejected configuration.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsInvalidInput returns true if the error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsClosed returns true if the error indicates a closed component.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// Join combines multiple errors into a single error.
// Returns nil if all errors are nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target,
// and if so, sets target to that error value and returns true.
func As(err error, target any) bool {
	return errors.As(err, target)
}
