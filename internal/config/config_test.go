package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("STORE_API_URL", "https://shop.example.com/wp-json/wc/store/v1")
	t.Setenv("STORE_CONSUMER_KEY", "ck_test")
	t.Setenv("STORE_CONSUMER_SECRET", "cs_test")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://shop.example.com")
	t.Setenv("EXCHANGE_RATE_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/wp-json/wc/store/v1", cfg.StoreAPI.BaseURL)
	assert.Equal(t, "ck_test", cfg.StoreAPI.ConsumerKey)
	assert.Equal(t, "cs_test", cfg.StoreAPI.ConsumerSecret)
	assert.Equal(t, 15*time.Second, cfg.StoreAPI.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.ExchangeAPI.CacheTTL)
	assert.Equal(t, []string{"http://localhost:3000", "https://shop.example.com"}, cfg.HTTPServer.AllowedOrigins)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPServer.Addr())
	assert.Equal(t, "cart-events", cfg.KafkaService.Topic)
	assert.Empty(t, cfg.RelayDB.Dsn)
}

func TestLoadRequiresStoreURL(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("STORE_API_URL", "")
	os.Unsetenv("STORE_API_URL")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
env: test
http_server:
  port: "9090"
store_api:
  base_url: https://upstream.test/store
exchange_api:
  api_key: rates-key
  cache_ttl: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(configPathEnv, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "9090", cfg.HTTPServer.Port)
	assert.Equal(t, "https://upstream.test/store", cfg.StoreAPI.BaseURL)
	assert.Equal(t, "rates-key", cfg.ExchangeAPI.APIKey)
	assert.Equal(t, 2*time.Minute, cfg.ExchangeAPI.CacheTTL)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
