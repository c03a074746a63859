package storeapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardWithoutCartToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Empty(t, r.Header.Get(domain.CartTokenHeader))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ck_key", user)
		assert.Equal(t, "cs_secret", pass)

		w.Header().Set(domain.CartTokenHeader, "fresh-token")
		w.Header().Set(domain.NonceHeader, "nonce-1")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", ConsumerKey: "ck_key", ConsumerSecret: "cs_secret"})

	resp, err := client.Forward(context.Background(), domain.RelayRequest{Method: http.MethodGet, Path: "/cart"}, domain.Session{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"items":[]}`, string(resp.Body))
	assert.Equal(t, "fresh-token", resp.Session.CartToken)
	assert.Equal(t, "nonce-1", resp.Session.Nonce)
}

func TestForwardMutatingSendsTokenNonceAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart/add-item", r.URL.Path)
		assert.Equal(t, "token-a", r.Header.Get(domain.CartTokenHeader))
		assert.Equal(t, "nonce-a", r.Header.Get(domain.NonceHeader))
		assert.Equal(t, "nonce-a", r.Header.Get(domain.LegacyNonceHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		_, _, ok := r.BasicAuth()
		assert.False(t, ok)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"id":42,"quantity":2}`, string(body))

		w.Header().Set(domain.LegacyNonceHeader, "nonce-b")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"items_count":2}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	resp, err := client.Forward(context.Background(), domain.RelayRequest{
		Method:   http.MethodPost,
		Path:     "cart/add-item",
		Body:     []byte(`{"id":42,"quantity":2}`),
		Mutating: true,
	}, domain.Session{CartToken: "token-a", Nonce: "nonce-a"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "nonce-b", resp.Session.Nonce)
	assert.Empty(t, resp.Session.CartToken)
}

func TestForwardReadOnlyDoesNotSendNonce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(domain.NonceHeader))
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Forward(context.Background(), domain.RelayRequest{
		Method: http.MethodGet,
		Path:   "/products",
		Query:  url.Values{"per_page": []string{"20"}},
	}, domain.Session{Nonce: "nonce-a"})
	require.NoError(t, err)
}

func TestForwardUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"woocommerce_rest_cart_invalid_key","message":"Cart item no longer exists.","data":{"status":404}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Forward(context.Background(), domain.RelayRequest{Method: http.MethodPost, Path: "/cart/remove-item", Mutating: true}, domain.Session{})
	require.Error(t, err)

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusNotFound, upstreamErr.StatusCode)
	assert.Equal(t, "Cart item no longer exists.", upstreamErr.Message)
	assert.Contains(t, string(upstreamErr.Body), "woocommerce_rest_cart_invalid_key")
}

func TestForwardUpstreamErrorWithoutJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Forward(context.Background(), domain.RelayRequest{Method: http.MethodGet, Path: "/cart"}, domain.Session{})

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusBadGateway, upstreamErr.StatusCode)
	assert.Equal(t, "Bad Gateway", upstreamErr.Message)
}

func TestForwardTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Forward(context.Background(), domain.RelayRequest{Method: http.MethodGet, Path: "/cart"}, domain.Session{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	var upstreamErr *domain.UpstreamError
	assert.False(t, errors.As(err, &upstreamErr))
}

func TestForwardUpstreamErrorKeepsFreshNonce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(domain.CartTokenHeader, "token-a")
		w.Header().Set(domain.NonceHeader, "nonce-fresh")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"woocommerce_rest_missing_nonce","message":"Missing the Nonce header."}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Forward(context.Background(), domain.RelayRequest{Method: http.MethodPost, Path: "/cart/add-item", Mutating: true}, domain.Session{CartToken: "token-a"})

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
	assert.Equal(t, domain.Session{CartToken: "token-a", Nonce: "nonce-fresh"}, upstreamErr.Session)
}
