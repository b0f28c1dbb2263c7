package venue

import (
	"errors"
	"fmt"
)

// ErrSymbolNotFound marks a symbol the venue does not know. Terminal for
// the item that referenced it, never retried.
var ErrSymbolNotFound = errors.New("venue: symbol not found")

// APIError is a non-2xx response from the venue.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("venue api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("venue api error %d", e.StatusCode)
}

// IsRetryable reports whether the error should trigger another attempt.
// Rate limits and server-side failures are transient; other 4xx responses
// are rejections and must not be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
