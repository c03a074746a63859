package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRateProvider struct {
	calls atomic.Int32
	zar   atomic.Value
	err   error
}

func newStubRateProvider(zar float64) *stubRateProvider {
	p := &stubRateProvider{}
	p.zar.Store(zar)
	return p
}

func (p *stubRateProvider) GetRates(ctx context.Context) (domain.RatePair, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return domain.RatePair{"USD": 1, "ZAR": p.zar.Load().(float64)}, nil
}

func (p *stubRateProvider) GetName() string { return "stub" }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestExchangeService(provider domain.ExchangeRateProvider, ttl time.Duration) (*DefaultExchangeRateService, *testClock) {
	clock := &testClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	cache := NewExchangeRateCache(ttl)
	cache.now = clock.Now
	return NewDefaultExchangeRateService(provider, cache, metrics.NewProxyMetrics(prometheus.NewRegistry())), clock
}

func TestGetRatesCachedWithinWindow(t *testing.T) {
	provider := newStubRateProvider(18.5)
	svc, clock := newTestExchangeService(provider, time.Hour)

	first, source := svc.GetRates(context.Background())
	assert.Equal(t, domain.RateSourceLive, source)
	assert.Equal(t, domain.RatePair{"USD": 1, "ZAR": 18.5}, first)

	provider.zar.Store(18.9)
	clock.Advance(59 * time.Minute)

	second, source := svc.GetRates(context.Background())
	assert.Equal(t, domain.RateSourceCache, source)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestGetRatesRefetchAfterWindow(t *testing.T) {
	provider := newStubRateProvider(18.5)
	svc, clock := newTestExchangeService(provider, time.Hour)

	svc.GetRates(context.Background())

	provider.zar.Store(18.9)
	clock.Advance(time.Hour)

	rates, source := svc.GetRates(context.Background())
	assert.Equal(t, domain.RateSourceLive, source)
	assert.Equal(t, 18.9, rates["ZAR"])
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestGetRatesMissingCredentialsServesFallback(t *testing.T) {
	provider := &stubRateProvider{err: domain.ErrMissingRatesAPIKey}
	svc, _ := newTestExchangeService(provider, time.Hour)

	for i := 0; i < 3; i++ {
		rates, source := svc.GetRates(context.Background())
		assert.Equal(t, domain.RateSourceFallback, source)
		assert.Equal(t, domain.RatePair{"USD": 1, "ZAR": 19.00}, rates)
	}
	assert.Equal(t, int32(3), provider.calls.Load())
}

func TestGetRatesFailureDoesNotRefreshCache(t *testing.T) {
	provider := newStubRateProvider(18.5)
	svc, clock := newTestExchangeService(provider, time.Hour)

	svc.GetRates(context.Background())
	clock.Advance(2 * time.Hour)

	provider.err = errors.New("timeout")
	rates, source := svc.GetRates(context.Background())
	assert.Equal(t, domain.RateSourceFallback, source)
	assert.Equal(t, domain.FallbackRates(), rates)

	_, ok := svc.cache.Get()
	assert.False(t, ok, "stale entry must stay stale after a failed fetch")
}

func TestGetRatesReturnsCopies(t *testing.T) {
	provider := newStubRateProvider(18.5)
	svc, _ := newTestExchangeService(provider, time.Hour)

	rates, _ := svc.GetRates(context.Background())
	rates["ZAR"] = 0

	cached, _ := svc.GetRates(context.Background())
	assert.Equal(t, 18.5, cached["ZAR"])

	fallback := domain.FallbackRates()
	fallback["ZAR"] = 1
	assert.Equal(t, 19.00, domain.FallbackRates()["ZAR"])
}

func TestRefreshIgnoresCacheAge(t *testing.T) {
	provider := newStubRateProvider(18.5)
	svc, _ := newTestExchangeService(provider, time.Hour)

	svc.GetRates(context.Background())
	provider.zar.Store(17.0)

	require.NoError(t, svc.Refresh(context.Background()))

	rates, source := svc.GetRates(context.Background())
	assert.Equal(t, domain.RateSourceCache, source)
	assert.Equal(t, 17.0, rates["ZAR"])
}

// blockingRateProvider holds the fetch open until released and fails if the
// context it was given is cancelled first.
type blockingRateProvider struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingRateProvider() *blockingRateProvider {
	return &blockingRateProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *blockingRateProvider) GetRates(ctx context.Context) (domain.RatePair, error) {
	p.calls.Add(1)
	p.once.Do(func() { close(p.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.release:
		return domain.RatePair{"USD": 1, "ZAR": 18.25}, nil
	}
}

func (p *blockingRateProvider) GetName() string { return "blocking" }

type ratesResult struct {
	rates  domain.RatePair
	source domain.RateSource
}

func TestSharedFetchSurvivesFirstCallerCancel(t *testing.T) {
	provider := newBlockingRateProvider()
	svc, _ := newTestExchangeService(provider, time.Hour)

	ctxA, cancelA := context.WithCancel(context.Background())
	resultA := make(chan ratesResult, 1)
	go func() {
		rates, source := svc.GetRates(ctxA)
		resultA <- ratesResult{rates, source}
	}()

	select {
	case <-provider.started:
	case <-time.After(time.Second):
		t.Fatal("provider was not called")
	}

	resultB := make(chan ratesResult, 1)
	go func() {
		rates, source := svc.GetRates(context.Background())
		resultB <- ratesResult{rates, source}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	a := <-resultA
	assert.Equal(t, domain.RateSourceFallback, a.source)

	close(provider.release)

	select {
	case b := <-resultB:
		assert.NotEqual(t, domain.RateSourceFallback, b.source)
		assert.Equal(t, 18.25, b.rates["ZAR"])
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
	assert.Equal(t, int32(1), provider.calls.Load())

	cached, ok := svc.cache.Get()
	require.True(t, ok)
	assert.Equal(t, 18.25, cached["ZAR"])
}

func TestRefreshWrapsProviderError(t *testing.T) {
	cause := errors.New("connection reset")
	provider := &stubRateProvider{err: cause}
	svc, _ := newTestExchangeService(provider, time.Hour)

	err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrRatesUnavailable)
	assert.ErrorIs(t, err, cause)
}
