//go:build integration

package storage_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/testutil/containers"
)

type PostgresStorageSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	storage  *storage.Storage
}

func TestPostgresStorageSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStorageSuite))
}

func (s *PostgresStorageSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	database := s.postgres.DB
	s.storage = storage.NewStorage(
		database,
		clearance.NewEngine(),
		postgresql.NewContainerRepo(database),
		postgresql.NewContainerLogRepo(database),
		postgresql.NewOutboxTaskRepo(),
	)
}

func (s *PostgresStorageSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "outbox_tasks", "container_logs", "containers")
	s.Require().NoError(err)
}

func (s *PostgresStorageSuite) create(id string) *clearance.Container {
	c, err := s.storage.CreateContainer(context.Background(), clearance.ExtractedData{
		ContainerID:  id,
		VesselName:   "MSC AURORA",
		ImporterName: "Dangote Industries Ltd",
		TIN:          "1234567890",
		CargoWeight:  decimal.NewNullDecimal(decimal.RequireFromString("18500.5")),
	}, "bol.pdf")
	s.Require().NoError(err)
	return c
}

func (s *PostgresStorageSuite) TestRoundTrip() {
	ctx := context.Background()
	s.create("MAEU4567890")

	_, err := s.storage.CreateContainer(ctx, clearance.ExtractedData{ContainerID: "MAEU4567890"}, "dup.pdf")
	s.ErrorIs(err, clearance.ErrDuplicateContainer)

	customs, err := s.storage.CheckCustomsStatus(ctx, "MAEU4567890")
	s.Require().NoError(err)
	s.True(customs.AmountDue.Decimal.Equal(decimal.RequireFromString("185005")))

	c, err := s.storage.GetContainer(ctx, "MAEU4567890")
	s.Require().NoError(err)
	s.Equal(clearance.CustomsPaymentRequired, c.CustomsStatus)
	s.True(c.CargoWeight.Decimal.Equal(decimal.RequireFromString("18500.5")))
	s.Empty(c.ValidationErrors)
	s.Len(c.Logs, 2)
}

func (s *PostgresStorageSuite) TestLifecycleWritesOneEventPerLogEntry() {
	ctx := context.Background()
	id := "MAEU4567890"
	s.create(id)

	_, err := s.storage.ValidateContainer(ctx, id, false)
	s.Require().NoError(err)
	customs, err := s.storage.CheckCustomsStatus(ctx, id)
	s.Require().NoError(err)
	_, err = s.storage.PayCustomsDuty(ctx, id, customs.AmountDue.Decimal, "")
	s.Require().NoError(err)
	_, err = s.storage.ScheduleInspection(ctx, id)
	s.Require().NoError(err)
	_, err = s.storage.CompleteInspection(ctx, id, true)
	s.Require().NoError(err)
	_, err = s.storage.ReleaseContainer(ctx, id)
	s.Require().NoError(err)

	c, err := s.storage.GetContainer(ctx, id)
	s.Require().NoError(err)
	s.Equal(clearance.OverallReleased, c.OverallStatus)

	counts, err := postgresql.NewOutboxTaskRepo().CountByStatus(ctx, s.postgres.DB)
	s.Require().NoError(err)
	s.Equal(len(c.Logs), counts[repository.TaskStatusCreated])
}

func (s *PostgresStorageSuite) TestConcurrentPaymentsPayOnce() {
	ctx := context.Background()
	id := "MAEU4567890"
	s.create(id)
	customs, err := s.storage.CheckCustomsStatus(ctx, id)
	s.Require().NoError(err)

	const goroutines = 10
	var wg sync.WaitGroup
	var paid, rejected atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.storage.PayCustomsDuty(ctx, id, customs.AmountDue.Decimal, "")
			switch {
			case err == nil:
				paid.Add(1)
			case s.ErrorIs(err, clearance.ErrAlreadyPaid):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), paid.Load())
	s.Equal(int32(goroutines-1), rejected.Load())
}

func (s *PostgresStorageSuite) TestLogsAreAppendOnly() {
	ctx := context.Background()
	s.create("MAEU4567890")

	_, err := s.postgres.DB.Exec(ctx, "UPDATE container_logs SET details = 'rewritten'")
	s.Error(err)
	_, err = s.postgres.DB.Exec(ctx, "DELETE FROM container_logs")
	s.Error(err)
}

func (s *PostgresStorageSuite) TestListContainers() {
	ctx := context.Background()
	s.create("MAEU4567890")
	s.create("MSCU1234567")
	_, err := s.storage.ValidateContainer(ctx, "MSCU1234567", true)
	s.Require().NoError(err)

	all, err := s.storage.ListContainers(ctx, storage.ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	validated, err := s.storage.ListContainers(ctx, storage.ListFilter{Status: string(clearance.OverallValidated)})
	s.Require().NoError(err)
	s.Require().Len(validated, 1)
	s.Equal("MSCU1234567", validated[0].ContainerID)
	s.Len(validated[0].Logs, 2)
}

func (s *PostgresStorageSuite) TestAbandonedClaimIsReclaimedAfterLease() {
	ctx := context.Background()
	s.create("MAEU4567890")
	repo := postgresql.NewOutboxTaskRepo()

	claim := func(lease time.Duration) int {
		tx, err := s.postgres.DB.BeginTx(ctx)
		s.Require().NoError(err)
		defer func() { _ = tx.Rollback(ctx) }()

		tasks, err := repo.GetProcessableTasksTx(ctx, tx, 10, 5, lease)
		s.Require().NoError(err)
		for _, task := range tasks {
			s.Require().NoError(repo.UpdateTaskStatusTx(ctx, tx, task.ID, repository.TaskStatusProcessing, task.Attempts, nil, nil))
		}
		s.Require().NoError(tx.Commit(ctx))
		return len(tasks)
	}

	s.Equal(1, claim(time.Hour))
	s.Zero(claim(time.Hour))

	time.Sleep(50 * time.Millisecond)
	s.Equal(1, claim(10*time.Millisecond))
}
