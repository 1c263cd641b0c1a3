package exchange

import (
	"errors"
	"fmt"
)

// ErrNoResponse is returned when the vision model answers without any content.
var ErrNoResponse = errors.New("no response from AI model")

// ConfigurationError reports a missing or unusable credential. It is raised
// before any I/O happens.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return e.Key + " is not configured"
}

// ValidationError reports bad caller input. It is raised before any I/O happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError is a non-2xx answer from an external provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
}

// TransportError wraps network and decoding failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a model answer that is not the expected JSON array.
// Raw keeps the model text for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse AI response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Kind returns a short label for err, used in logs and metrics.
func Kind(err error) string {
	var (
		cfgErr       *ConfigurationError
		validErr     *ValidationError
		upstreamErr  *UpstreamError
		transportErr *TransportError
		parseErr     *ParseError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &validErr):
		return "validation"
	case errors.As(err, &upstreamErr):
		return "upstream"
	case errors.Is(err, ErrNoResponse):
		return "no_response"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "unknown"
	}
}
