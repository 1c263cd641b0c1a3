package exchange

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu     sync.Mutex
	calls  int
	ranges []DateRange
	quote  Quote
	err    error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(_ context.Context, r DateRange) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ranges = append(f.ranges, r)
	if f.err != nil {
		return Quote{}, f.err
	}
	return f.quote, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type storedQuote struct {
	q  Quote
	at time.Time
}

type mapStore struct {
	mu   sync.Mutex
	data map[string]storedQuote
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]storedQuote)}
}

func (m *mapStore) Save(key string, q Quote, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = storedQuote{q: q, at: at}
}

func (m *mapStore) Get(key string) (Quote, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	return e.q, e.at, ok
}

type fixedEstimator struct {
	got []float64
}

func (f *fixedEstimator) Name() string { return "fixed" }

func (f *fixedEstimator) Estimate(_ context.Context, nationalRate float64) ProvinceData {
	f.got = append(f.got, nationalRate)
	return ProvinceData{
		Provinces:    []ProvinceRate{{ID: "matanzas", Name: "Matanzas", USDRate: nationalRate}},
		NationalRate: nationalRate,
	}
}

func newTestService(src RateSource, est Estimator, cfg ServiceConfig) (*Service, *time.Time) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	svc := NewService(src, newMapStore(), est, cfg, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestGetQuote_CachesWithinTTL(t *testing.T) {
	src := &fakeSource{quote: Quote{USD: 420, EUR: 460, MLC: 200}}
	svc, now := newTestService(src, &fixedEstimator{}, ServiceConfig{CacheTTL: time.Hour})

	first, err := svc.GetQuote(testContext(t), DateRange{})
	require.NoError(t, err)

	*now = now.Add(59 * time.Minute)
	second, err := svc.GetQuote(testContext(t), DateRange{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.Calls())
}

func TestGetQuote_RefetchesWhenStale(t *testing.T) {
	src := &fakeSource{quote: Quote{USD: 420}}
	svc, now := newTestService(src, &fixedEstimator{}, ServiceConfig{CacheTTL: time.Hour})

	_, err := svc.GetQuote(testContext(t), DateRange{})
	require.NoError(t, err)

	*now = now.Add(time.Hour)
	_, err = svc.GetQuote(testContext(t), DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 2, src.Calls())
}

func TestGetQuote_InvalidRangeMakesNoCalls(t *testing.T) {
	src := &fakeSource{quote: Quote{USD: 420}}
	svc, _ := newTestService(src, &fixedEstimator{}, ServiceConfig{})

	from := time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)
	for _, r := range []DateRange{
		{From: from, To: from.Add(24 * time.Hour)},
		{From: from, To: from.Add(-time.Second)},
	} {
		_, err := svc.GetQuote(testContext(t), r)
		var validErr *ValidationError
		require.ErrorAs(t, err, &validErr)
	}
	assert.Equal(t, 0, src.Calls())
}

func TestGetQuote_ErrorsAreNotCached(t *testing.T) {
	src := &fakeSource{err: &UpstreamError{Provider: "fake", StatusCode: 503}}
	svc, _ := newTestService(src, &fixedEstimator{}, ServiceConfig{})

	_, err := svc.GetQuote(testContext(t), DateRange{})
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, 503, upstreamErr.StatusCode)

	src.err = nil
	src.quote = Quote{USD: 410}
	q, err := svc.GetQuote(testContext(t), DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 410.0, q.USD)
	assert.Equal(t, 2, src.Calls())
}

func TestGetQuote_SameDayWindow(t *testing.T) {
	src := &fakeSource{quote: Quote{USD: 420}}
	svc, _ := newTestService(src, &fixedEstimator{}, ServiceConfig{SameDayWindow: true})

	_, err := svc.GetQuote(testContext(t), DateRange{})
	require.NoError(t, err)

	require.Len(t, src.ranges, 1)
	assert.Equal(t, time.Date(2025, 10, 17, 0, 0, 1, 0, time.UTC), src.ranges[0].From)
	assert.Equal(t, time.Date(2025, 10, 17, 23, 59, 1, 0, time.UTC), src.ranges[0].To)
}

type gatedSource struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (g *gatedSource) Name() string { return "gated" }

func (g *gatedSource) Fetch(ctx context.Context, _ DateRange) (Quote, error) {
	close(g.started)
	<-g.release
	g.ctxErr <- ctx.Err()
	return Quote{USD: 425}, nil
}

func TestGetQuote_SharedFetchSurvivesCallerCancel(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{}), ctxErr: make(chan error, 1)}
	svc, _ := newTestService(src, &fixedEstimator{}, ServiceConfig{})

	firstCtx, cancel := context.WithCancel(testContext(t))
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.GetQuote(firstCtx, DateRange{})
		firstErr <- err
	}()
	<-src.started

	type result struct {
		q   Quote
		err error
	}
	second := make(chan result, 1)
	go func() {
		q, err := svc.GetQuote(testContext(t), DateRange{})
		second <- result{q, err}
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(src.release)

	assert.NoError(t, <-src.ctxErr)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 425.0, got.q.USD)
}

func TestRefresh_BypassesCache(t *testing.T) {
	src := &fakeSource{quote: Quote{USD: 420}}
	svc, _ := newTestService(src, &fixedEstimator{}, ServiceConfig{})

	_, err := svc.GetQuote(testContext(t), DateRange{})
	require.NoError(t, err)

	src.quote = Quote{USD: 430}
	require.NoError(t, svc.Refresh(testContext(t)))

	q, err := svc.GetQuote(testContext(t), DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 430.0, q.USD)
	assert.Equal(t, 2, src.Calls())
}

func TestGetSummary_UsesQuoteUSD(t *testing.T) {
	src := &fakeSource{quote: Quote{USD: 120}}
	est := &fixedEstimator{}
	svc, _ := newTestService(src, est, ServiceConfig{})

	summary, err := svc.GetSummary(testContext(t))
	require.NoError(t, err)

	assert.Equal(t, []float64{120}, est.got)
	assert.Equal(t, 120.0, summary.Provinces.NationalRate)
	assert.Len(t, summary.Provinces.Provinces, 1)
}

func TestGetSummary_QuoteFailureSkipsEstimate(t *testing.T) {
	src := &fakeSource{err: &ConfigurationError{Key: "EL_TOQUE_API_TOKEN"}}
	est := &fixedEstimator{}
	svc, _ := newTestService(src, est, ServiceConfig{})

	_, err := svc.GetSummary(testContext(t))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, est.got)
}

func TestNewService_ClampsTTL(t *testing.T) {
	svc := NewService(&fakeSource{}, newMapStore(), &fixedEstimator{}, ServiceConfig{CacheTTL: 3 * time.Hour}, nil)
	assert.Equal(t, time.Hour, svc.CacheTTL())

	svc = NewService(&fakeSource{}, newMapStore(), &fixedEstimator{}, ServiceConfig{CacheTTL: 10 * time.Minute}, nil)
	assert.Equal(t, 10*time.Minute, svc.CacheTTL())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "configuration", Kind(&ConfigurationError{Key: "X"}))
	assert.Equal(t, "validation", Kind(&ValidationError{Message: "bad"}))
	assert.Equal(t, "upstream", Kind(&UpstreamError{StatusCode: 500}))
	assert.Equal(t, "transport", Kind(&TransportError{Err: errors.New("dial")}))
	assert.Equal(t, "parse", Kind(&ParseError{Raw: "x", Err: errors.New("bad")}))
	assert.Equal(t, "no_response", Kind(ErrNoResponse))
}
