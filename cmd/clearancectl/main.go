package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/app"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/cli"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialise storage", zap.Error(err))
	}
	defer a.Close()

	if a.Publisher != nil {
		go func() {
			if err := a.Publisher.Run(ctx); err != nil {
				log.Error("outbox publisher stopped", zap.Error(err))
			}
		}()
		defer a.Publisher.Shutdown()
	}

	h := cli.New(a.Storage, os.Stdout)
	h.HandleHelp()
	if err := h.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Error("input error", zap.Error(err))
	}
}
