package gateway

import (
	"errors"
	"fmt"
)

// Error taxonomy for upstream traffic. Retryable classes never escape the
// gateway: callers see either a final retryable error after the retry budget
// is exhausted, or a terminal one immediately.
var (
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
	ErrUpstreamTransient   = errors.New("upstream transient failure")
	ErrUpstreamTerminal    = errors.New("upstream terminal failure")
	ErrSchemaMismatch      = errors.New("upstream response schema mismatch")

	// ErrDataInsufficient marks analyses that completed but had nothing to
	// work with: no imagery in range, no roads within reach, no records.
	ErrDataInsufficient = errors.New("insufficient upstream data")
)

// Retryable reports whether the gateway may retry after err.
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout) ||
		errors.Is(err, ErrUpstreamRateLimited) ||
		errors.Is(err, ErrUpstreamTransient)
}

// statusError wraps an upstream HTTP status into the taxonomy.
func statusError(endpoint Endpoint, status int, class error) error {
	return fmt.Errorf("%w: %s returned status %d", class, endpoint, status)
}
