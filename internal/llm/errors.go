package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var ErrProviderUnavailable = errors.New("provider not configured")

// failure reported by (or on the way to) an upstream provider
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// timeouts, throttling and 5xx are worth retrying
func (e *ProviderError) Retryable() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}

	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func newProviderError(provider string, status int, msg string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "provider timed out"
	}

	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Message:    msg,
		Err:        err,
	}
}
