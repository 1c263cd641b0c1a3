package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts outbound calls per provider and outcome.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuba_rates_upstream_requests_total",
			Help: "Outbound requests to external providers, by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// QuoteCache counts quote cache lookups by result (hit, miss).
	QuoteCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuba_rates_quote_cache_total",
			Help: "Quote cache lookups by result.",
		},
		[]string{"result"},
	)

	// ProvinceFallbacks counts province estimates degraded to an empty result.
	ProvinceFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuba_rates_province_fallbacks_total",
			Help: "Province estimates that fell back to an empty breakdown, by failure kind.",
		},
		[]string{"strategy", "kind"},
	)
)
