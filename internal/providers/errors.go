package providers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RateLimitError is returned when a provider answers 429.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	StatusCode int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// IsRateLimitError unwraps err to a *RateLimitError.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// apiError converts an SDK status error into a RateLimitError or a
// descriptive error naming the provider.
func apiError(provider string, status int, message string, retryAfter string) error {
	if status == 429 {
		return &RateLimitError{
			Message:    fmt.Sprintf("%s rate limited: %s", provider, message),
			RetryAfter: parseRetryAfter(retryAfter),
			StatusCode: status,
		}
	}
	if message != "" {
		return fmt.Errorf("%s error (status %d): %s", provider, status, message)
	}
	return fmt.Errorf("%s error (status %d)", provider, status)
}
