package exchange

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/cuba-rates/internal/metrics"
)

// DefaultCacheTTL is the longest a quote may be served from cache.
const DefaultCacheTTL = time.Hour

// DefaultFetchTimeout bounds a shared upstream fetch once it is detached
// from the caller that started it.
const DefaultFetchTimeout = 30 * time.Second

// ServiceConfig holds the tunables of a Service.
type ServiceConfig struct {
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	// SameDayWindow makes range-less fetches ask for today's 00:00:01-23:59:01 window.
	SameDayWindow bool
}

// Service orchestrates the rate source, the quote cache and the province estimator.
type Service struct {
	source    RateSource
	store     Store
	estimator Estimator
	cfg       ServiceConfig
	log       *zap.Logger

	sf  singleflight.Group
	now func() time.Time
}

// NewService creates a new Service. A TTL outside (0, 1h] is clamped to 1h.
func NewService(source RateSource, store Store, estimator Estimator, cfg ServiceConfig, log *zap.Logger) *Service {
	if cfg.CacheTTL <= 0 || cfg.CacheTTL > DefaultCacheTTL {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		source:    source,
		store:     store,
		estimator: estimator,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// CacheTTL returns the effective cache window.
func (s *Service) CacheTTL() time.Duration {
	return s.cfg.CacheTTL
}

// GetQuote returns the quote for r, served from cache when it is fresh enough.
// Invalid ranges fail before the cache or the source is touched.
func (s *Service) GetQuote(ctx context.Context, r DateRange) (Quote, error) {
	if err := r.Validate(); err != nil {
		return Quote{}, err
	}
	r = s.resolve(r)

	key := r.Key()
	if q, fetchedAt, ok := s.store.Get(key); ok && s.now().Sub(fetchedAt) < s.cfg.CacheTTL {
		metrics.QuoteCache.WithLabelValues("hit").Inc()
		s.log.Debug("quote cache hit", zap.String("key", key))
		return q, nil
	}
	metrics.QuoteCache.WithLabelValues("miss").Inc()

	return s.fetchAndStore(ctx, key, r)
}

// Refresh bypasses the cache and stores a fresh latest quote.
func (s *Service) Refresh(ctx context.Context) error {
	r := s.resolve(DateRange{})
	_, err := s.fetchAndStore(ctx, r.Key(), r)
	return err
}

// GetProvinces estimates the per-province breakdown for nationalRate.
func (s *Service) GetProvinces(ctx context.Context, nationalRate float64) ProvinceData {
	return s.estimator.Estimate(ctx, nationalRate)
}

// GetSummary fetches the latest quote, then estimates provinces from its USD rate.
// A failed quote fails the summary; province trouble only empties the breakdown.
func (s *Service) GetSummary(ctx context.Context) (Summary, error) {
	q, err := s.GetQuote(ctx, DateRange{})
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Quote:     q,
		Provinces: s.GetProvinces(ctx, q.USD),
	}, nil
}

func (s *Service) resolve(r DateRange) DateRange {
	if r.IsZero() && s.cfg.SameDayWindow {
		return SameDayWindow(s.now())
	}
	return r
}

// fetchAndStore collapses concurrent misses for the same key into one upstream call.
// The shared call outlives any single caller's cancellation; each caller still
// stops waiting when its own ctx is done.
func (s *Service) fetchAndStore(ctx context.Context, key string, r DateRange) (Quote, error) {
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()

		q, err := s.source.Fetch(fetchCtx, r)
		if err != nil {
			return nil, err
		}
		s.store.Save(key, q, s.now())
		return q, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return Quote{}, ctx.Err()
	}

	if res.Err != nil {
		s.log.Warn("quote fetch failed",
			zap.String("source", s.source.Name()),
			zap.String("key", key),
			zap.String("kind", Kind(res.Err)),
			zap.Error(res.Err))
		return Quote{}, res.Err
	}

	q, ok := res.Val.(Quote)
	if !ok {
		return Quote{}, fmt.Errorf("unexpected result type from %s", s.source.Name())
	}
	s.log.Debug("quote fetched", zap.String("key", key), zap.Bool("shared", res.Shared), zap.Float64("usd", q.USD))
	return q, nil
}
