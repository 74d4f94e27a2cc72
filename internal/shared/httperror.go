package shared

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Status     string
	// RetryAfter carries the server's advisory wait on 429 responses.
	// Zero means the header was absent.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// IsThrottled reports whether err is a "too many requests" signal from the
// remote service. Throttling is expected during long imports and must never
// be treated as a terminal failure.
func IsThrottled(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests
}

// ThrottleDelay returns the server-advised wait for a throttled error,
// defaulting to one second when the Retry-After header was absent.
func ThrottleDelay(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}
	return time.Second
}

// IsRetryableHTTPError checks if a remote error should be retried with backoff:
// gateway problems, server errors and network timeouts. Throttling is handled
// separately and is deliberately not included here.
func IsRetryableHTTPError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusInternalServerError, // 500
			http.StatusBadGateway,         // 502
			http.StatusServiceUnavailable, // 503
			http.StatusGatewayTimeout:     // 504
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
