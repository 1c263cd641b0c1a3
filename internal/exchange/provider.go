package exchange

import (
	"context"
	"time"
)

// RateSource abstracts the upstream TRMI provider.
type RateSource interface {
	Name() string
	Fetch(ctx context.Context, r DateRange) (Quote, error)
}

// Estimator turns a national USD rate into a per-province breakdown.
// Implementations never fail; on trouble they return an empty breakdown.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, nationalRate float64) ProvinceData
}

// Store is the contract the in-memory quote cache must satisfy.
type Store interface {
	Save(key string, q Quote, fetchedAt time.Time)
	// Get returns the quote stored under key along with the time it was fetched.
	Get(key string) (Quote, time.Time, bool)
}
