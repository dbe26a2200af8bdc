package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

var (
	// ErrTimeout marks a request that exceeded its hard per-request timeout.
	ErrTimeout = errors.New("catalog request timeout")
	// ErrNotFound marks a 404 from the remote catalog.
	ErrNotFound = errors.New("catalog entity not found")
	// ErrRateLimited marks a 429 from the remote catalog.
	ErrRateLimited = errors.New("catalog rate limited")
)

// HTTPError carries the remote status and response body of a non-2xx reply.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("catalog returned HTTP %d: %s", e.Status, e.Body)
}

// IsRetryable reports whether an error is worth retrying against a strict
// catalog: connection resets, timeouts, and HTTP 429/500/502/503/504.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Status {
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
