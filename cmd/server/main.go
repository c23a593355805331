package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"shopdash/internal/config"
	"shopdash/internal/infrastructure/logger"
	"shopdash/internal/infrastructure/telemetry"
	"shopdash/internal/product"
	"shopdash/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if err := cfg.ValidateGateway(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	telem, err := telemetry.New(context.Background(), cfg.Telemetry, zapLogger)
	if err != nil {
		zapLogger.Fatal("initializing telemetry", zap.Error(err))
	}

	productCtrl := product.NewModule(cfg.Upstream, telem, zapLogger)
	router := server.NewRouter(productCtrl, cfg.Server, telem, zapLogger)
	srv := server.New(cfg.Server.Port, router, zapLogger)

	zapLogger.Info("gateway configured",
		zap.String("apiVersion", cfg.Upstream.APIVersion),
		zap.Bool("breakerEnabled", cfg.Upstream.BreakerEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zapLogger.Error("gateway error", zap.Error(err))
	}

	telemCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownGrace)
	defer cancel()
	if err := telem.Shutdown(telemCtx); err != nil {
		zapLogger.Error("telemetry shutdown failed", zap.Error(err))
	}

	zapLogger.Info("gateway stopped")
}
