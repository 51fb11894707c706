package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/app"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/grpcserver"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, envFile, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	if envFile != "" {
		log.Info("loaded environment file", zap.String("path", envFile))
	}

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialise service", zap.Error(err))
	}
	defer a.Close()

	srv := server.New(a.Storage, a.Users, log.Named("http"), server.AuditConfig{
		Workers:   cfg.Audit.Workers,
		BatchSize: cfg.Audit.BatchSize,
		Timeout:   cfg.Audit.Timeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})
	if cfg.GRPCPort != "" {
		health := grpcserver.New(log.Named("grpc"), cfg.HealthInterval, a.Checks...)
		g.Go(func() error {
			return health.Run(gctx, cfg.GRPCPort)
		})
	}
	if a.Publisher != nil {
		g.Go(func() error {
			defer a.Publisher.Shutdown()
			return a.Publisher.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		return
	}
	log.Info("service gracefully stopped")
}
