package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/metrics"
	"golang.org/x/sync/singleflight"
)

const DefaultExchangeRateTTL = time.Hour

type ExchangeRateService interface {
	GetRates(ctx context.Context) (domain.RatePair, domain.RateSource)
	Refresh(ctx context.Context) error
}

type DefaultExchangeRateService struct {
	provider domain.ExchangeRateProvider
	cache    *ExchangeRateCache
	metrics  *metrics.ProxyMetrics
	group    singleflight.Group
}

// ExchangeRateCache holds a single rate pair and the time it was fetched.
type ExchangeRateCache struct {
	rates     domain.RatePair
	timestamp time.Time
	ttl       time.Duration
	now       func() time.Time
	mu        sync.RWMutex
}

func NewExchangeRateCache(ttl time.Duration) *ExchangeRateCache {
	if ttl <= 0 {
		ttl = DefaultExchangeRateTTL
	}
	return &ExchangeRateCache{
		ttl: ttl,
		now: time.Now,
	}
}

func NewDefaultExchangeRateService(provider domain.ExchangeRateProvider, cache *ExchangeRateCache, proxyMetrics *metrics.ProxyMetrics) *DefaultExchangeRateService {
	return &DefaultExchangeRateService{
		provider: provider,
		cache:    cache,
		metrics:  proxyMetrics,
	}
}

// GetRates serves the cached pair while it is fresh, otherwise fetches a new
// one. Any failure yields the fallback pair and leaves the cache untouched.
func (s *DefaultExchangeRateService) GetRates(ctx context.Context) (domain.RatePair, domain.RateSource) {
	if rates, ok := s.cache.Get(); ok {
		s.metrics.RecordExchangeRateRequest(string(domain.RateSourceCache))
		return rates, domain.RateSourceCache
	}

	rates, err := s.fetch(ctx)
	if err != nil {
		slog.Warn("exchange rates unavailable, serving fallback",
			"provider", s.provider.GetName(),
			"error", err,
		)
		s.metrics.RecordExchangeRateRequest(string(domain.RateSourceFallback))
		return domain.FallbackRates(), domain.RateSourceFallback
	}

	s.metrics.RecordExchangeRateRequest(string(domain.RateSourceLive))
	return rates, domain.RateSourceLive
}

// Refresh fetches rates regardless of cache age.
func (s *DefaultExchangeRateService) Refresh(ctx context.Context) error {
	_, err := s.fetch(ctx)
	return err
}

// fetch collapses concurrent misses into one provider call. The shared call
// runs detached from any single caller; each caller still stops waiting when
// its own ctx is done. The provider's client timeout bounds the call.
func (s *DefaultExchangeRateService) fetch(ctx context.Context) (domain.RatePair, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("rates", func() (any, error) {
		rates, err := s.provider.GetRates(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(rates)
		return rates, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrRatesUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrRatesUnavailable, res.Err)
		}
		return copyRates(res.Val.(domain.RatePair)), nil
	}
}

func (c *ExchangeRateCache) Get() (domain.RatePair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.rates == nil || c.now().Sub(c.timestamp) >= c.ttl {
		return nil, false
	}
	return copyRates(c.rates), true
}

func (c *ExchangeRateCache) Set(rates domain.RatePair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates = copyRates(rates)
	c.timestamp = c.now()
}

func copyRates(rates domain.RatePair) domain.RatePair {
	out := make(domain.RatePair, len(rates))
	for k, v := range rates {
		out[k] = v
	}
	return out
}
