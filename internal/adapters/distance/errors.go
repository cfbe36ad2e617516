package distance

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey means the gateway has no provider credential. The
	// engine stays functional on the local estimator.
	ErrMissingAPIKey = errors.New("routing provider: missing API key")

	// ErrProviderUnavailable means a network-level failure latched the
	// circuit breaker; callers degrade to the local estimator.
	ErrProviderUnavailable = errors.New("routing provider: network unavailable")

	// ErrDailyQuotaExceeded means the daily call budget is spent.
	ErrDailyQuotaExceeded = errors.New("routing provider: daily call quota exhausted")
)

// ProviderStatusError carries a non-OK top-level status from the remote
// provider. It does not trip the circuit breaker.
type ProviderStatusError struct {
	Status string
}

func (e *ProviderStatusError) Error() string {
	return fmt.Sprintf("routing provider: status %s", e.Status)
}

// Provider statuses worth retrying with backoff. Anything else fails the
// call immediately.
func retryableStatus(status string) bool {
	switch status {
	case "OVER_QUERY_LIMIT", "REQUEST_DENIED", "UNKNOWN_ERROR":
		return true
	}
	return false
}
