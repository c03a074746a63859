package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProxyMetrics содержит метрики прокси
type ProxyMetrics struct {
	// Входящие HTTP запросы
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Вызовы upstream store API
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	UpstreamErrorsTotal     *prometheus.CounterVec

	// Сессии
	NonceLookupsTotal *prometheus.CounterVec
	NoncesSwept       prometheus.Counter
	NoncesStored      prometheus.Gauge

	// Курсы валют
	ExchangeRateRequestsTotal *prometheus.CounterVec

	// События корзины
	CartEventsPublishedTotal *prometheus.CounterVec
}

// NewProxyMetrics регистрирует метрики в reg
func NewProxyMetrics(reg prometheus.Registerer) *ProxyMetrics {
	factory := promauto.With(reg)

	return &ProxyMetrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_http_requests_total",
				Help: "Количество входящих HTTP запросов",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proxy_http_request_duration_seconds",
				Help:    "Время обработки входящего запроса в секундах",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms, 20ms, 40ms...
			},
			[]string{"method", "route"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_upstream_requests_total",
				Help: "Количество запросов к store API",
			},
			[]string{"method", "path", "status"},
		),

		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proxy_upstream_request_duration_seconds",
				Help:    "Время ответа store API в секундах",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"method", "path"},
		),

		UpstreamErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_upstream_errors_total",
				Help: "Ошибки при обращении к store API",
			},
			[]string{"path", "error_type"},
		),

		NonceLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_nonce_lookups_total",
				Help: "Источник nonce для изменяющих запросов",
			},
			[]string{"source"},
		),

		NoncesSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "proxy_nonces_swept_total",
				Help: "Количество удаленных просроченных nonce",
			},
		),

		NoncesStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "proxy_nonces_stored",
				Help: "Количество nonce в памяти после очистки",
			},
		),
		ExchangeRateRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_exchange_rate_requests_total",
				Help: "Запросы курсов валют по источнику ответа",
			},
			[]string{"source"},
		),

		CartEventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proxy_cart_events_published_total",
				Help: "Опубликованные события корзины",
			},
			[]string{"type", "result"},
		),
	}
}

// RecordHTTPRequest записывает входящий запрос
func (m *ProxyMetrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordUpstreamRequest записывает вызов store API
func (m *ProxyMetrics) RecordUpstreamRequest(method, path string, status int, durationSeconds float64) {
	m.UpstreamRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.UpstreamRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordUpstreamError записывает ошибку store API
func (m *ProxyMetrics) RecordUpstreamError(path, errorType string) {
	m.UpstreamErrorsTotal.WithLabelValues(path, errorType).Inc()
}

func (m *ProxyMetrics) RecordNonceLookup(source string) {
	m.NonceLookupsTotal.WithLabelValues(source).Inc()
}

func (m *ProxyMetrics) RecordNoncesSwept(count int) {
	m.NoncesSwept.Add(float64(count))
}

func (m *ProxyMetrics) SetNoncesStored(count int) {
	m.NoncesStored.Set(float64(count))
}

func (m *ProxyMetrics) RecordExchangeRateRequest(source string) {
	m.ExchangeRateRequestsTotal.WithLabelValues(source).Inc()
}

func (m *ProxyMetrics) RecordCartEventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CartEventsPublishedTotal.WithLabelValues(eventType, result).Inc()
}
