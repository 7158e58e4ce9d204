package moralis

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable is returned without touching the network while the
// circuit breaker is open.
var ErrUpstreamUnavailable = errors.New("moralis: upstream temporarily unavailable (circuit open)")

// UpstreamError is a hard failure from the provider: a fatal status that is
// never retried, or a retryable condition whose retry budget ran out.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Exhausted  bool // retry budget spent on 429/5xx
}

func (e *UpstreamError) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("moralis: %s: status %d after retry budget exhausted", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("moralis: %s: unexpected status %d", e.Endpoint, e.StatusCode)
}

// Temporary reports whether the failure was a transient condition (rate
// limit or server error) rather than a request the provider rejected.
func (e *UpstreamError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
