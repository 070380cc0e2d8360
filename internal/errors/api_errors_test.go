package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name           string
		err            *APIError
		expectedString string
	}{
		{
			name: "error with status",
			err: &APIError{
				Op:      "fork",
				Message: "Repository is disabled",
				Status:  http.StatusForbidden,
			},
			expectedString: "fork: Repository is disabled (HTTP 403)",
		},
		{
			name: "error without status",
			err: &APIError{
				Op:      "project",
				Message: "connection refused",
			},
			expectedString: "project: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedString, tt.err.Error())
			assert.True(t, errors.Is(tt.err, ErrPlatformAPI))
		})
	}
}

func TestAPIErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NewAPIError("fork", "request failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrPlatformAPI))
}

func TestAPIErrorPredicates(t *testing.T) {
	wrap := func(status int) error {
		return fmt.Errorf("platform github: %w", NewAPIHTTPError("fork", status, "boom"))
	}

	assert.True(t, IsNotFound(wrap(http.StatusNotFound)))
	assert.False(t, IsNotFound(wrap(http.StatusBadRequest)))

	assert.True(t, IsUnauthorized(wrap(http.StatusUnauthorized)))
	assert.True(t, IsUnauthorized(wrap(http.StatusForbidden)))

	assert.True(t, IsRateLimitExceeded(wrap(http.StatusTooManyRequests)))

	for _, status := range []int{429, 500, 502, 503, 504} {
		assert.True(t, IsRetryable(wrap(status)), "status %d", status)
	}
	assert.False(t, IsRetryable(wrap(http.StatusUnprocessableEntity)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
