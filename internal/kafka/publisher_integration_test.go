//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/testutil/containers"
)

func TestOutboxToBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mgr := containers.GetManager()
	pg := mgr.GetPostgres(t)
	broker := mgr.GetRedpanda(t)
	require.NoError(t, pg.TruncateTables(ctx, "outbox_tasks", "container_logs", "containers"))

	outboxRepo := postgresql.NewOutboxTaskRepo()
	s := storage.NewStorage(pg.DB, clearance.NewEngine(),
		postgresql.NewContainerRepo(pg.DB),
		postgresql.NewContainerLogRepo(pg.DB),
		outboxRepo,
	)

	_, err := s.CreateContainer(ctx, clearance.ExtractedData{
		ContainerID: "MAEU4567890",
		VesselName:  "MSC AURORA",
		CargoWeight: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
	}, "bol.pdf")
	require.NoError(t, err)

	publisher := kafka.NewPublisher(pg.DB, outboxRepo, kafka.NewWriterProducer([]string{broker.Broker}, nil), kafka.PublisherConfig{
		PollInterval: 100 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  5,
	}, nil)
	go func() { _ = publisher.Run(ctx) }()
	defer publisher.Shutdown()

	received := make(chan repository.ContainerEvent, 1)
	consumer := kafka.NewConsumer(kafka.NewReader(kafka.ConsumerConfig{
		Brokers: []string{broker.Broker},
		Topic:   repository.ContainerEventsTopic,
		GroupID: "portflow-integration",
	}), func(_ context.Context, e repository.ContainerEvent) error {
		received <- e
		return nil
	}, nil)
	go func() { _ = consumer.Run(ctx) }()

	select {
	case e := <-received:
		require.Equal(t, "MAEU4567890", e.ContainerID)
		require.Equal(t, clearance.ActionDocumentUpload, e.Action)
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}

	require.Eventually(t, func() bool {
		counts, err := outboxRepo.CountByStatus(ctx, pg.DB)
		return err == nil && counts[repository.TaskStatusDone] == 1
	}, 30*time.Second, 200*time.Millisecond)
}
