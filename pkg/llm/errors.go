package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError reports a failure from the embedding provider. A zero
// StatusCode means the request never produced an HTTP response.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("embedding provider: %s", e.Message)
	}
	return fmt.Sprintf("embedding provider: status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure is worth retrying: rate limits,
// server-side errors, and transport failures.
func (e *UpstreamError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// IsRetryable reports whether err is a retryable provider failure.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Retryable()
}
