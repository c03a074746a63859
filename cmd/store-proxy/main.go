package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-store-proxy/internal/app/background"
	"github.com/LavaJover/shvark-store-proxy/internal/app/setup"
	"github.com/LavaJover/shvark-store-proxy/internal/config"
	"github.com/LavaJover/shvark-store-proxy/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-store-proxy/internal/delivery/http/router"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	slog.SetDefault(logger.New(cfg.LogConfig))
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps, err := setup.InitializeDependencies(cfg)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tasks := &background.BackgroundTasks{
		Nonces:             deps.Nonces,
		ExchangeService:    deps.ExchangeService,
		Metrics:            deps.Metrics,
		NonceSweepInterval: cfg.Session.SweepInterval,
		WarmUpRates:        cfg.ExchangeAPI.WarmUpOnStart,
	}
	tasks.StartAll(ctx)

	engine, err := router.New(router.Deps{
		CartUsecase:     deps.CartUsecase,
		ExchangeService: deps.ExchangeService,
		Metrics:         deps.Metrics,
		Gatherer:        deps.Registry,
		Logger:          slog.Default(),
		AllowedOrigins:  cfg.HTTPServer.AllowedOrigins,
	})
	if err != nil {
		log.Fatalf("failed to init router: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPServer.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health
	var grpcServer *grpc.Server
	healthHandler := grpcapi.NewHealthHandler()
	if cfg.GRPCServer.Port != "" {
		lis, err := net.Listen("tcp", cfg.GRPCServer.Addr())
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}
		grpcServer = grpc.NewServer()
		healthHandler.Register(grpcServer)
		healthHandler.SetServing()

		go func() {
			slog.Info("gRPC health server started", "addr", cfg.GRPCServer.Addr())
			if err := grpcServer.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "error", err)
			}
		}()
	}

	go func() {
		slog.Info("HTTP server started", "addr", httpServer.Addr, "upstream", cfg.StoreAPI.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	healthHandler.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}
