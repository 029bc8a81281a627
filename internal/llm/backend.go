// ABOUTME: Language-model backend contract and error taxonomy
// ABOUTME: Every backend failure maps onto timeout, unavailable or malformed output
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrBackendTimeout means the call did not finish within its deadline
	ErrBackendTimeout = errors.New("llm backend timeout")
	// ErrBackendUnavailable covers network errors, refused connections and API errors
	ErrBackendUnavailable = errors.New("llm backend unavailable")
	// ErrMalformedOutput means the response could not be parsed as the requested schema
	ErrMalformedOutput = errors.New("malformed llm output")
)

// Request is a single completion call
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the backend for a JSON object response
	JSON bool
}

// Backend issues completion requests to a language model
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Classify maps an arbitrary backend error onto the taxonomy. Errors already
// in the taxonomy are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendTimeout) || errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrMalformedOutput) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

// IsFallbackError reports whether err should trigger a strategy fallback.
// All taxonomy errors do; MalformedOutput is treated like Unavailable.
func IsFallbackError(err error) bool {
	return errors.Is(err, ErrBackendTimeout) ||
		errors.Is(err, ErrBackendUnavailable) ||
		errors.Is(err, ErrMalformedOutput)
}

// isTransient reports whether a retry could plausibly succeed
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
