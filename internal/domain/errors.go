package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream store api unavailable")
	ErrRatesUnavailable    = errors.New("exchange rates unavailable")
	ErrMissingRatesAPIKey  = errors.New("exchange rate api key is not configured")
)

// UpstreamError is returned when the store API answers with a non-2xx status.
// Session carries any cart token or nonce the upstream sent with the error.
type UpstreamError struct {
	StatusCode int
	Body       []byte
	Message    string
	Session    Session
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}
