package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// StatusError is returned when a provider answers with a non-OK HTTP
// status. Keeping the code lets callers separate rate limits and
// upstream failures from rejected requests.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

// IsRetryable classifies a failed call. Timeouts, rate limits and
// upstream/transport failures are worth another attempt; cancellation
// and rejected requests are not. Unknown errors default to retryable
// since the caller's attempt budget bounds the damage.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if statusErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return true
}
