package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCategory is the normalised failure taxonomy for external data and
// messaging providers.
type ErrorCategory string

const (
	ErrorTimeout          ErrorCategory = "timeout"
	ErrorBadData          ErrorCategory = "bad_data"
	ErrorAuthentication   ErrorCategory = "authentication"
	ErrorProviderOutage   ErrorCategory = "provider_outage"
	ErrorContractMismatch ErrorCategory = "contract_mismatch"
	ErrorNotFound         ErrorCategory = "not_found"
	ErrorRateLimited      ErrorCategory = "rate_limited"
	ErrorInternal         ErrorCategory = "internal"
)

// ProviderError wraps a provider failure with its category. Timeouts, outages
// and rate limits are retryable; not-found is an empty result.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	StatusCode int
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// Retryable is read by the retry executor's default classifier.
func (e *ProviderError) Retryable() bool {
	switch e.Category {
	case ErrorTimeout, ErrorProviderOutage, ErrorRateLimited:
		return true
	}
	return false
}

// NotFound is read by the retry executor's default classifier.
func (e *ProviderError) NotFound() bool {
	return e.Category == ErrorNotFound
}

func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
	}
}

// FromStatus categorises a non-2xx HTTP response.
func FromStatus(providerID string, status int, body string) *ProviderError {
	var cat ErrorCategory
	switch {
	case status == http.StatusNotFound:
		cat = ErrorNotFound
	case status == http.StatusTooManyRequests:
		cat = ErrorRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		cat = ErrorAuthentication
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		cat = ErrorTimeout
	case status >= 500:
		cat = ErrorProviderOutage
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		cat = ErrorBadData
	default:
		cat = ErrorContractMismatch
	}
	pe := NewProviderError(cat, providerID, fmt.Sprintf("unexpected status %d", status), nil)
	pe.StatusCode = status
	if body != "" {
		pe.Message += ": " + body
	}
	return pe
}

// FromTransport categorises an error returned by http.Client.Do.
func FromTransport(providerID string, err error) *ProviderError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return NewProviderError(ErrorTimeout, providerID, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ErrorInternal, providerID, "request cancelled", err)
	default:
		return NewProviderError(ErrorProviderOutage, providerID, "request failed", err)
	}
}

func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// GetCategory extracts the category, defaulting to internal.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

var ErrCircuitOpen = errors.New("provider circuit open")
