package embedding

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Quota covers rate limits and exhausted quotas, transport
// covers network and upstream failures, request covers inputs the
// provider rejected outright.
const (
	KindQuota     = "quota"
	KindTransport = "transport"
	KindRequest   = "request"
)

// ProviderError is the typed failure surfaced by every embedding
// provider, so callers can tell a rate limit from a broken connection.
type ProviderError struct {
	Provider   string
	Kind       string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s embedding %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s embedding %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(provider string, status int, body string) *ProviderError {
	kind := KindTransport
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindQuota
	case status >= 400 && status < 500:
		kind = KindRequest
	}
	return &ProviderError{
		Provider:   provider,
		Kind:       kind,
		StatusCode: status,
		Err:        fmt.Errorf("unexpected response: %s", body),
	}
}

func transportError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTransport, Err: err}
}

// IsQuotaError reports whether err is a rate-limit/quota failure.
func IsQuotaError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindQuota
}

// IsTransportError reports whether err is a network or upstream failure.
func IsTransportError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindTransport
}
