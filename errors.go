package parley

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind categorizes a failure for recovery decisions.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorNetwork
	ErrorAuthentication
	ErrorRateLimit
	ErrorServer
	ErrorTimeout
	ErrorCancelled
)

// String returns the snake_case name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorAuthentication:
		return "authentication"
	case ErrorRateLimit:
		return "rate_limit"
	case ErrorServer:
		return "server_error"
	case ErrorTimeout:
		return "timeout"
	case ErrorCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Retryable reports whether the kind is retryable in principle. The policy
// still bounds attempts and may refuse via the circuit breaker.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorNetwork, ErrorTimeout, ErrorServer, ErrorRateLimit:
		return true
	default:
		return false
	}
}

// Failure is a classified error. RetryAfter is the server-suggested delay
// for rate_limit failures, zero when the server did not suggest one.
type Failure struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration
	Cause      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Sentinel errors for common failure modes.
var (
	// ErrNotAuthenticated indicates no usable credential is available.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrModeNotSupported indicates the selected mode does not stream.
	ErrModeNotSupported = errors.New("mode does not support streaming")

	// ErrStoppedByUser is the cancellation cause for user-initiated stops.
	ErrStoppedByUser = errors.New("stopped by user")

	// ErrSessionNotFound indicates an operation on an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
)
