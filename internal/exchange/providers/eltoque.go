package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/cuba-rates/internal/exchange"
)

// DefaultElToqueURL is the TRMI endpoint.
const DefaultElToqueURL = "https://tasas.eltoque.com/v1/trmi"

// ElToqueProvider implements the exchange.RateSource interface for El Toque's TRMI API.
type ElToqueProvider struct {
	name    string
	token   string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewElToqueProvider(client *http.Client, token, baseURL string) *ElToqueProvider {
	if baseURL == "" {
		baseURL = DefaultElToqueURL
	}
	return &ElToqueProvider{
		name:    "eltoque",
		token:   token,
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("eltoque"),
	}
}

func (p *ElToqueProvider) Name() string {
	return p.name
}

// Fetch issues a single GET for r and normalizes the answer into a Quote.
// Missing credentials and invalid ranges fail before any request is made.
func (p *ElToqueProvider) Fetch(ctx context.Context, r exchange.DateRange) (exchange.Quote, error) {
	if p.token == "" {
		return exchange.Quote{}, &exchange.ConfigurationError{Key: "EL_TOQUE_API_TOKEN"}
	}
	if err := r.Validate(); err != nil {
		return exchange.Quote{}, err
	}

	u := p.baseURL
	if values := r.Values(); len(values) > 0 {
		u = fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return exchange.Quote{}, &exchange.TransportError{Err: err}
	}
	req.Header.Set("accept", "*/*")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := doRequest(ctx, p.name, p.client, p.circuit, req)
	if err != nil {
		return exchange.Quote{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return exchange.Quote{}, &exchange.TransportError{Err: fmt.Errorf("read trmi response: %w", err)}
	}
	var payload exchange.TRMIPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return exchange.Quote{}, &exchange.TransportError{Err: fmt.Errorf("decode trmi response: %w", err)}
	}

	return normalizeTRMI(payload, body), nil
}

func normalizeTRMI(payload exchange.TRMIPayload, raw []byte) exchange.Quote {
	return exchange.Quote{
		USD:     payload.Tasas[exchange.CodeUSD],
		EUR:     payload.Tasas[exchange.CodeEUR],
		MLC:     payload.Tasas[exchange.CodeMLC],
		Date:    payload.Date,
		Time:    fmt.Sprintf("%d:%d:%d", payload.Hour, payload.Minutes, payload.Seconds),
		Raw:     json.RawMessage(raw),
		Payload: payload,
	}
}
