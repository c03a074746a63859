package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
)

const DefaultExchangeRateAPIURL = "https://v6.exchangerate-api.com/v6"

// ExchangeRateAPIProvider fetches USD based rates from exchangerate-api.com.
type ExchangeRateAPIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type latestRatesResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func NewExchangeRateAPIProvider(baseURL, apiKey string, timeout time.Duration) *ExchangeRateAPIProvider {
	if baseURL == "" {
		baseURL = DefaultExchangeRateAPIURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ExchangeRateAPIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *ExchangeRateAPIProvider) GetName() string {
	return "exchangerate-api"
}

func (p *ExchangeRateAPIProvider) GetRates(ctx context.Context) (domain.RatePair, error) {
	if p.apiKey == "" {
		return nil, domain.ErrMissingRatesAPIKey
	}

	url := fmt.Sprintf("%s/%s/latest/%s", p.baseURL, p.apiKey, domain.CurrencyUSD)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get rates from %s: %w", p.GetName(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status: %d", p.GetName(), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var latest latestRatesResponse
	if err := json.Unmarshal(body, &latest); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", p.GetName(), err)
	}
	if latest.Result != "" && latest.Result != "success" {
		return nil, fmt.Errorf("%s error: %s", p.GetName(), latest.ErrorType)
	}

	zar, ok := latest.ConversionRates[domain.CurrencyZAR]
	if !ok || zar <= 0 {
		return nil, fmt.Errorf("%s response has no %s rate", p.GetName(), domain.CurrencyZAR)
	}

	return domain.RatePair{
		domain.CurrencyUSD: 1,
		domain.CurrencyZAR: zar,
	}, nil
}
