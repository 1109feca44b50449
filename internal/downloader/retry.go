package downloader

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorCategory categorizes errors for retry decisions
type ErrorCategory int

const (
	// ErrorRetryable - transport failures and timeouts
	ErrorRetryable ErrorCategory = iota
	// ErrorNonRetryable - any HTTP status other than 429, and unknown errors
	ErrorNonRetryable
	// ErrorRateLimited - 429, wait for Retry-After
	ErrorRateLimited
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorRetryable:
		return "retryable"
	case ErrorRateLimited:
		return "rate_limited"
	}
	return "non_retryable"
}

// CategorizeError determines how a fetch error should be handled
func CategorizeError(err error) ErrorCategory {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return ErrorRateLimited
		}
		return ErrorNonRetryable
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return ErrorRetryable
	}

	return ErrorNonRetryable
}

// parseRetryAfter reads a Retry-After value given as delta-seconds or an
// HTTP date. Empty or unparsable values fall back to def.
func parseRetryAfter(value string, def time.Duration, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return def
		}
		return time.Duration(secs) * time.Second
	}

	if when, err := http.ParseTime(value); err == nil {
		if d := when.Sub(now); d > 0 {
			return d
		}
		return 0
	}

	return def
}
