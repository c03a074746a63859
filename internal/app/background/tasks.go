package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-store-proxy/internal/usecase"
)

type NonceSweeper interface {
	Sweep() int
	Len() int
}

type BackgroundTasks struct {
	Nonces             NonceSweeper
	ExchangeService    usecase.ExchangeRateService
	Metrics            *metrics.ProxyMetrics
	NonceSweepInterval time.Duration
	WarmUpRates        bool
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	if bt.WarmUpRates {
		go bt.warmUpExchangeRates(ctx)
	}
	if bt.NonceSweepInterval > 0 {
		go bt.startNonceSweep(ctx)
	}
}

func (bt *BackgroundTasks) warmUpExchangeRates(ctx context.Context) {
	if err := bt.ExchangeService.Refresh(ctx); err != nil {
		slog.Warn("exchange rates warm-up failed", "error", err)
		return
	}
	slog.Info("exchange rates warmed up")
}

func (bt *BackgroundTasks) startNonceSweep(ctx context.Context) {
	ticker := time.NewTicker(bt.NonceSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.sweepNonces()
		}
	}
}

func (bt *BackgroundTasks) sweepNonces() {
	removed := bt.Nonces.Sweep()
	remaining := bt.Nonces.Len()
	bt.Metrics.RecordNoncesSwept(removed)
	bt.Metrics.SetNoncesStored(remaining)
	if removed > 0 {
		slog.Debug("expired nonces swept", "removed", removed, "remaining", remaining)
	}
}
