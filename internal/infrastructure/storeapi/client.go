package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
)

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// Client forwards relay requests to the upstream store API.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	client         *http.Client
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Forward(ctx context.Context, req domain.RelayRequest, session domain.Session) (*domain.RelayResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.consumerKey != "" && c.consumerSecret != "" {
		httpReq.SetBasicAuth(c.consumerKey, c.consumerSecret)
	}
	if session.CartToken != "" {
		httpReq.Header.Set(domain.CartTokenHeader, session.CartToken)
	}
	if req.Mutating && session.Nonce != "" {
		httpReq.Header.Set(domain.NonceHeader, session.Nonce)
		httpReq.Header.Set(domain.LegacyNonceHeader, session.Nonce)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamErr := newUpstreamError(resp.StatusCode, respBody)
		upstreamErr.Session = sessionFromHeaders(resp.Header)
		return nil, upstreamErr
	}

	return &domain.RelayResponse{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Session:    sessionFromHeaders(resp.Header),
	}, nil
}

func (c *Client) buildURL(req domain.RelayRequest) string {
	url := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}
	return url
}

func sessionFromHeaders(h http.Header) domain.Session {
	nonce := h.Get(domain.NonceHeader)
	if nonce == "" {
		nonce = h.Get(domain.LegacyNonceHeader)
	}
	return domain.Session{
		CartToken: h.Get(domain.CartTokenHeader),
		Nonce:     nonce,
	}
}

func newUpstreamError(status int, body []byte) *domain.UpstreamError {
	upstreamErr := &domain.UpstreamError{
		StatusCode: status,
		Body:       body,
	}
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		upstreamErr.Message = errResp.Message
	} else {
		upstreamErr.Message = http.StatusText(status)
	}
	return upstreamErr
}
