package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/cuba-rates/internal/exchange"
	"github.com/i474232898/cuba-rates/internal/metrics"
)

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// newBreaker returns the circuit breaker shared by all calls to one provider.
// Only 5xx answers and transport failures count against it.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: isBreakerSuccess,
	})
}

// isBreakerSuccess treats 4xx answers as healthy: they reject the caller's
// request, not the provider's availability.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var upstreamErr *exchange.UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

// doRequest executes req exactly once behind the circuit breaker.
// Non-2xx answers become *exchange.UpstreamError, everything else that goes
// wrong on the wire becomes *exchange.TransportError.
func doRequest(
	ctx context.Context,
	provider string,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (*http.Response, error) {
	if client == nil {
		return nil, &exchange.TransportError{Err: errNoHTTPClient}
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, &exchange.TransportError{Err: execErr}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &exchange.UpstreamError{Provider: provider, StatusCode: resp.StatusCode}
		}
		return resp, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &exchange.TransportError{Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}
		metrics.UpstreamRequests.WithLabelValues(provider, exchange.Kind(err)).Inc()
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &exchange.TransportError{Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	metrics.UpstreamRequests.WithLabelValues(provider, "ok").Inc()
	return resp, nil
}
