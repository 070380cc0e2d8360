package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a failure returned by a hosting platform API
type APIError struct {
	Op      string // Operation that failed
	Message string // Error message, as returned by the remote when available
	Status  int    // HTTP status code (if applicable)
	Err     error  // Underlying error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap ties every APIError to the ErrPlatformAPI kind.
func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPlatformAPI, e.Err}
	}
	return []error{ErrPlatformAPI}
}

// NewAPIError creates a new APIError
func NewAPIError(op, message string, err error) *APIError {
	return &APIError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewAPIHTTPError creates a new APIError with HTTP status
func NewAPIHTTPError(op string, status int, message string) *APIError {
	return &APIError{
		Op:      op,
		Status:  status,
		Message: message,
	}
}

func asAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsNotFound checks if the error indicates a resource was not found
func IsNotFound(err error) bool {
	if ae, ok := asAPIError(err); ok {
		return ae.Status == http.StatusNotFound
	}
	return false
}

// IsUnauthorized checks if the remote rejected the credential
func IsUnauthorized(err error) bool {
	if ae, ok := asAPIError(err); ok {
		return ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden
	}
	return false
}

// IsRateLimitExceeded checks if the error indicates rate limit was exceeded
func IsRateLimitExceeded(err error) bool {
	if ae, ok := asAPIError(err); ok {
		return ae.Status == http.StatusTooManyRequests
	}
	return false
}

// IsRetryable checks if the error is potentially retryable
func IsRetryable(err error) bool {
	if ae, ok := asAPIError(err); ok {
		switch ae.Status {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
