package infra

import (
	"strconv"
	"time"
)

const (
	// Rate-limit (429) backoff: exponential, capped.
	rateLimitBase = 750 * time.Millisecond
	rateLimitMax  = 10 * time.Second

	// Transient server error (5xx) backoff: linear, shorter cap.
	serverErrorBase = 500 * time.Millisecond
	serverErrorMax  = 5 * time.Second
)

// RateLimitDelay returns how long to wait before retrying a rate-limited
// request. attempt is 1-based. If the provider advertised a numeric
// Retry-After (seconds), that wins; otherwise the delay grows exponentially.
// Either way the wait is capped at 10 seconds.
func RateLimitDelay(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil && secs >= 0 {
			d := time.Duration(secs * float64(time.Second))
			if d > rateLimitMax {
				return rateLimitMax
			}
			return d
		}
	}

	if attempt < 1 {
		attempt = 1
	}
	// rateLimitBase * 2^(attempt-1); attempt is bounded by the retry budget
	// so the shift cannot overflow.
	d := rateLimitBase * time.Duration(1<<uint(attempt-1))
	if d > rateLimitMax {
		return rateLimitMax
	}
	return d
}

// ServerErrorDelay returns the linear backoff before retrying after a 5xx or
// transport failure, capped at 5 seconds.
func ServerErrorDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * serverErrorBase
	if d > serverErrorMax {
		return serverErrorMax
	}
	return d
}
