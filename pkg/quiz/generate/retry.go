package generate

import (
	"errors"
	"fmt"

	"ai-examprep-be/pkg/llm"
)

// ValidationError marks a structurally invalid or low-quality model
// response. It consumes an attempt from the same budget as transient
// call failures: the request is resubmitted with identical inputs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func retryable(err error) bool {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return true
	}
	return llm.IsRetryable(err)
}

// retry runs fn up to maxAttempts times, failing fast on non-retryable
// errors. The error surfaced after exhaustion names the stage and the
// attempt count alongside the last failure.
func retry(stage string, maxAttempts int, fn func(attempt int) error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return fmt.Errorf("%s: attempt %d of %d: %w", stage, attempt, maxAttempts, err)
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", stage, maxAttempts, lastErr)
}
