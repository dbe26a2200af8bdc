package catalog

import "time"

// Retry pacing lives in vars so tests can shrink the intervals.
var (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 15 * time.Second
)
