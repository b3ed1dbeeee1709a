package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Veraticus/spicewatch/internal/common"
)

// ErrMalformedResponse is returned when a provider answers with something
// that is not the expected classification object.
var ErrMalformedResponse = errors.New("malformed classification response")

// APIError is a non-success HTTP answer from a provider.
type APIError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Transient reports whether the status signals overload or a passing outage.
func (e *APIError) Transient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529: // Anthropic "overloaded"
		return true
	}
	return false
}

// classifyError sorts a provider failure into the transient or fatal class.
// Rate limits, network failures and local timeouts are transient; everything
// else, including caller cancellation, is fatal.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var retryable *common.RetryableError
	if errors.As(err, &retryable) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return common.Permanent(err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, common.ErrRateLimit) {
		return common.Transient(err)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Transient() {
			return common.Transient(err)
		}
		return common.Permanent(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return common.Transient(err)
	}

	return common.Permanent(err)
}
