package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrRateLimit is a 429 from the provider. RetryAfter is taken from the
// Retry-After header when the provider sends one.
type ErrRateLimit struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", providerLabel(e.Provider), e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means structured output did not match its schema, or
// the provider returned no usable text.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers 5xx responses and transport failures.
type ErrProviderUnavailable struct {
	Provider string
	Err      error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", providerLabel(e.Provider), e.Err)
	}
	return providerLabel(e.Provider) + " unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrRequestRejected is a 4xx other than 429: a bad key, an unknown model
// or a malformed request. Retrying cannot help.
type ErrRequestRejected struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ErrRequestRejected) Error() string {
	return fmt.Sprintf("%s rejected request (%d): %v", providerLabel(e.Provider), e.StatusCode, e.Err)
}

func (e *ErrRequestRejected) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means structured output was cut off at MaxTokens
// and cannot be parsed. Truncated free text is returned as-is instead.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

func providerLabel(p string) string {
	if p == "" {
		return "LLM provider"
	}
	return p
}

// statusError classifies a failed API call by HTTP status. A zero status
// means the request never got a response.
func statusError(provider string, status int, header http.Header, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Provider: provider, RetryAfter: retryAfter(header), Err: err}
	case status >= 400 && status < 500 && status != http.StatusRequestTimeout:
		return &ErrRequestRejected{Provider: provider, StatusCode: status, Err: err}
	default:
		return &ErrProviderUnavailable{Provider: provider, Err: err}
	}
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP
// date. Missing or malformed values yield zero.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(time.Until(at), 0)
	}
	return 0
}
