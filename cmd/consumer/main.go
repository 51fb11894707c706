package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/kafka"
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

	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("KAFKA_BROKERS is not set")
	}

	reader := kafka.NewReader(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer func() {
		log.Info("closing kafka reader")
		if err := reader.Close(); err != nil {
			log.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	log.Info("consumer connected",
		zap.String("topic", cfg.Kafka.Topic),
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("group", cfg.Kafka.GroupID))

	consumer := kafka.NewConsumer(reader, kafka.LogEvents(log.Named("events")), log.Named("consumer"))
	if err := consumer.Run(ctx); err != nil {
		log.Error("consumer stopped", zap.Error(err))
	}
}
