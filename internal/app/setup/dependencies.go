package setup

import (
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-store-proxy/internal/config"
	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	infrastructure "github.com/LavaJover/shvark-store-proxy/internal/infrastructure/exchange_providers"
	publisher "github.com/LavaJover/shvark-store-proxy/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/session"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/storeapi"
	"github.com/LavaJover/shvark-store-proxy/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Dependencies struct {
	Config          *config.ProxyConfig
	Registry        *prometheus.Registry
	Metrics         *metrics.ProxyMetrics
	Nonces          *session.NonceStore
	CartUsecase     usecase.CartUsecase
	ExchangeService usecase.ExchangeRateService
	closers         []func() error
}

func InitializeDependencies(cfg *config.ProxyConfig) (*Dependencies, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	proxyMetrics := metrics.NewProxyMetrics(registry)

	deps := &Dependencies{
		Config:   cfg,
		Registry: registry,
		Metrics:  proxyMetrics,
		Nonces:   session.NewNonceStore(cfg.Session.NonceTTL),
	}

	events, err := deps.initCartEventPublisher(cfg)
	if err != nil {
		return nil, fmt.Errorf("cart event publisher: %w", err)
	}

	audit, err := deps.initRelayAudit(cfg)
	if err != nil {
		return nil, fmt.Errorf("relay audit: %w", err)
	}

	storeClient := storeapi.NewClient(storeapi.Config{
		BaseURL:        cfg.StoreAPI.BaseURL,
		ConsumerKey:    cfg.StoreAPI.ConsumerKey,
		ConsumerSecret: cfg.StoreAPI.ConsumerSecret,
		Timeout:        cfg.StoreAPI.Timeout,
	})
	cartUsecase := usecase.NewDefaultCartUsecase(storeClient, deps.Nonces, events, audit, proxyMetrics)
	deps.CartUsecase = cartUsecase
	// Closers run in reverse, so pending cart events drain before Kafka closes.
	deps.closers = append(deps.closers, func() error {
		cartUsecase.Wait()
		return nil
	})

	rateProvider := infrastructure.NewExchangeRateAPIProvider(cfg.ExchangeAPI.BaseURL, cfg.ExchangeAPI.APIKey, cfg.ExchangeAPI.Timeout)
	if cfg.ExchangeAPI.APIKey == "" {
		slog.Warn("EXCHANGE_RATE_API_KEY is not set, fallback rates will be served")
	}
	deps.ExchangeService = usecase.NewDefaultExchangeRateService(
		rateProvider,
		usecase.NewExchangeRateCache(cfg.ExchangeAPI.CacheTTL),
		proxyMetrics,
	)

	return deps, nil
}

func (d *Dependencies) initCartEventPublisher(cfg *config.ProxyConfig) (domain.CartEventPublisher, error) {
	if len(cfg.KafkaService.Brokers) == 0 {
		slog.Info("kafka brokers not configured, cart events disabled")
		return publisher.NewCartEventPublisher(publisher.NoopPublisher{}, cfg.KafkaService.Topic), nil
	}

	kafkaPublisher := publisher.NewDefaultKafkaPublisher(cfg.KafkaService.Brokers)
	d.closers = append(d.closers, kafkaPublisher.Close)
	slog.Info("cart events enabled", "brokers", cfg.KafkaService.Brokers, "topic", cfg.KafkaService.Topic)
	return publisher.NewCartEventPublisher(kafkaPublisher, cfg.KafkaService.Topic), nil
}

// initRelayAudit returns a nil repository when no DSN is configured.
func (d *Dependencies) initRelayAudit(cfg *config.ProxyConfig) (domain.RelayAuditRepository, error) {
	if cfg.RelayDB.Dsn == "" {
		return nil, nil
	}

	db, err := postgres.InitDB(cfg.RelayDB.Dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate.RunMigrations(db, cfg.RelayDB.MigrationsPath); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	d.closers = append(d.closers, sqlDB.Close)

	slog.Info("relay audit log enabled")
	return repository.NewDefaultRelayEventRepository(db), nil
}

func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			slog.Error("failed to close dependency", "error", err)
		}
	}
}
