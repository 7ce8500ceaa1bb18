package consoleclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection refused, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates an authentication failure (invalid credentials)
	ErrTypeAuth
	// ErrTypeHTTP indicates an HTTP-level error (non-2xx status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a parsing error (malformed JSON, invalid response)
	ErrTypeParse
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeCancelled indicates the request's context was cancelled,
	// typically because a newer edit superseded it
	ErrTypeCancelled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ClientError represents an error that occurred while talking to the console API
type ClientError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ClientError) Unwrap() error {
	return e.Err
}

// classifyTransportError turns a transport failure into a typed ClientError
func classifyTransportError(message string, err error) *ClientError {
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeCancelled, Message: message, Err: err, Retryable: false}
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &ClientError{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Classify the underlying transport error instead
		return classifyTransportError(message, urlErr.Err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &ClientError{Type: ErrTypeNetwork, Message: message + " (connection refused)", Err: err, Retryable: true}
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ClientError{Type: ErrTypeNetwork, Message: fmt.Sprintf("%s (cannot resolve %s)", message, dnsErr.Name), Err: err, Retryable: false}
	}

	return &ClientError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *ClientError {
	return &ClientError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Retryable:  false,
	}
}

// NewHTTPError creates an HTTP-level error. Server errors are retryable.
func NewHTTPError(statusCode int, message string) *ClientError {
	return &ClientError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *ClientError {
	return &ClientError{
		Type:      ErrTypeParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeAuth
}

// IsCancelled checks if an error came from a cancelled request context
func IsCancelled(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeCancelled
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}
