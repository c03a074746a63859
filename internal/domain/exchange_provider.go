package domain

import "context"

const (
	CurrencyUSD = "USD"
	CurrencyZAR = "ZAR"
)

// RatePair holds conversion rates relative to USD, keyed by currency code.
type RatePair map[string]float64

// FallbackRates is served whenever live rates cannot be obtained.
func FallbackRates() RatePair {
	return RatePair{CurrencyUSD: 1, CurrencyZAR: 19.00}
}

type RateSource string

const (
	RateSourceCache    RateSource = "cache"
	RateSourceLive     RateSource = "live"
	RateSourceFallback RateSource = "fallback"
)

type ExchangeRateProvider interface {
	GetRates(ctx context.Context) (RatePair, error)
	GetName() string
}
