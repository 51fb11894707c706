package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/db"
	mock_db "gitlab.ozon.dev/pupkingeorgij/portflow/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
	mock_storage "gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage/mocks"
)

var fixedTime = time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)

func testEngine() *clearance.Engine {
	return clearance.NewEngine(clearance.WithClock(func() time.Time { return fixedTime }))
}

func sampleData() clearance.ExtractedData {
	return clearance.ExtractedData{
		ContainerID:  "MAEU4567890",
		VesselName:   "MSC AURORA",
		ImporterName: "Dangote Industries Ltd",
		TIN:          "1234567890",
		CargoWeight:  decimal.NewNullDecimal(decimal.NewFromInt(18500)),
	}
}

type storageMocks struct {
	db        *mock_db.MockDB
	tx        *mock_db.MockTx
	container *mock_storage.MockContainerRepository
	logs      *mock_storage.MockContainerLogRepository
	outbox    *mock_storage.MockOutboxTaskRepository
	cache     *mock_storage.MockCache
}

func newTestStorage(t *testing.T) (*Storage, storageMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := storageMocks{
		db:        mock_db.NewMockDB(ctrl),
		tx:        mock_db.NewMockTx(ctrl),
		container: mock_storage.NewMockContainerRepository(ctrl),
		logs:      mock_storage.NewMockContainerLogRepository(ctrl),
		outbox:    mock_storage.NewMockOutboxTaskRepository(ctrl),
		cache:     mock_storage.NewMockCache(ctrl),
	}
	s := NewStorage(m.db, testEngine(), m.container, m.logs, m.outbox, WithCache(m.cache))
	return s, m
}

// storedRow returns the persisted form of a freshly created container after
// the customs assessment.
func storedRow(t *testing.T) (*repository.Container, []*repository.ContainerLog) {
	t.Helper()
	e := testEngine()
	c, err := e.NewContainer(sampleData(), "bol.pdf")
	require.NoError(t, err)
	e.CheckCustoms(c)

	logs := make([]*repository.ContainerLog, 0, len(c.Logs))
	for i, entry := range c.Logs {
		l := toRepoLog(c.ContainerID, entry)
		l.ID = int64(i + 1)
		logs = append(logs, l)
	}
	return toRepoContainer(c), logs
}

func TestStorage_CreateContainer(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, m := newTestStorage(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ db.Tx, c *repository.Container) error {
				assert.Equal(t, "MAEU4567890", c.ID)
				assert.Equal(t, string(clearance.OverallPendingValidation), c.OverallStatus)
				assert.True(t, c.DocumentValidated)
				return nil
			})
		m.logs.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ db.Tx, l *repository.ContainerLog) error {
				assert.Equal(t, clearance.ActionDocumentUpload, l.Action)
				assert.Equal(t, clearance.ActorSystem, l.Actor)
				assert.Equal(t, "Bill of Lading uploaded: bol.pdf", l.Details)
				assert.Equal(t, fixedTime, l.LoggedAt)
				return nil
			})
		m.outbox.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ db.Tx, task *repository.OutboxTask) error {
				assert.Equal(t, repository.ContainerEventsTopic, task.Topic)
				assert.Equal(t, "MAEU4567890", task.Key)

				var event repository.ContainerEvent
				require.NoError(t, json.Unmarshal(task.Payload, &event))
				assert.Equal(t, clearance.ActionDocumentUpload, event.Action)
				assert.Equal(t, string(clearance.OverallPendingValidation), event.OverallStatus)
				return nil
			})
		m.tx.EXPECT().Commit(ctx).Return(nil)
		m.cache.EXPECT().Set(ctx, gomock.Any())

		c, err := s.CreateContainer(ctx, sampleData(), "bol.pdf")
		require.NoError(t, err)
		assert.Equal(t, "MAEU4567890", c.ContainerID)
		assert.False(t, c.Dirty())
		assert.Len(t, c.Logs, 1)
	})

	t.Run("duplicate", func(t *testing.T) {
		s, m := newTestStorage(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(repository.ErrDuplicate)
		m.tx.EXPECT().Rollback(ctx).Return(nil)

		_, err := s.CreateContainer(ctx, sampleData(), "bol.pdf")
		assert.ErrorIs(t, err, clearance.ErrDuplicateContainer)
		assert.ErrorIs(t, err, clearance.ErrConflict)
	})

	t.Run("missing identifier", func(t *testing.T) {
		s, _ := newTestStorage(t)

		data := sampleData()
		data.ContainerID = "  "
		_, err := s.CreateContainer(ctx, data, "bol.pdf")
		assert.ErrorIs(t, err, clearance.ErrMissingContainerID)
	})

	t.Run("transaction begin error", func(t *testing.T) {
		s, m := newTestStorage(t)

		m.db.EXPECT().BeginTx(ctx).Return(nil, errors.New("db error"))

		_, err := s.CreateContainer(ctx, sampleData(), "bol.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})

	t.Run("log insert error", func(t *testing.T) {
		s, m := newTestStorage(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.logs.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(errors.New("insert failed"))
		m.tx.EXPECT().Rollback(ctx).Return(nil)

		_, err := s.CreateContainer(ctx, sampleData(), "bol.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to add container log entry")
	})
}

func TestStorage_GetContainer(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit", func(t *testing.T) {
		s, m := newTestStorage(t)
		cached := &clearance.Container{ContainerID: "MAEU4567890"}

		m.cache.EXPECT().Get(ctx, "MAEU4567890").Return(cached, true)

		c, err := s.GetContainer(ctx, "MAEU4567890")
		require.NoError(t, err)
		assert.Same(t, cached, c)
	})

	t.Run("cache miss", func(t *testing.T) {
		s, m := newTestStorage(t)
		row, logs := storedRow(t)

		m.cache.EXPECT().Get(ctx, row.ID).Return(nil, false)
		m.container.EXPECT().GetByID(ctx, row.ID).Return(row, nil)
		m.logs.EXPECT().GetByContainerID(ctx, row.ID).Return(logs, nil)
		m.cache.EXPECT().Set(ctx, gomock.Any())

		c, err := s.GetContainer(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, clearance.CustomsPaymentRequired, c.CustomsStatus)
		assert.Len(t, c.Logs, 2)
		assert.False(t, c.Dirty())
	})

	t.Run("not found", func(t *testing.T) {
		s, m := newTestStorage(t)

		m.cache.EXPECT().Get(ctx, "NOPE").Return(nil, false)
		m.container.EXPECT().GetByID(ctx, "NOPE").Return(nil, repository.ErrObjectNotFound)

		_, err := s.GetContainer(ctx, "NOPE")
		assert.ErrorIs(t, err, clearance.ErrContainerNotFound)
	})
}

func TestStorage_ListContainers(t *testing.T) {
	ctx := context.Background()

	t.Run("groups logs by container", func(t *testing.T) {
		s, m := newTestStorage(t)
		row, logs := storedRow(t)
		other := *row
		other.ID = "MSCU1234567"

		status := string(clearance.OverallPendingValidation)
		m.container.EXPECT().List(ctx, repository.ContainerFilter{Status: &status, Limit: DefaultListLimit}).
			Return([]*repository.Container{row, &other}, nil)
		m.logs.EXPECT().GetByContainerIDs(ctx, []string{row.ID, other.ID}).Return(logs, nil)

		containers, err := s.ListContainers(ctx, ListFilter{Status: status})
		require.NoError(t, err)
		require.Len(t, containers, 2)
		assert.Len(t, containers[0].Logs, 2)
		assert.Empty(t, containers[1].Logs)
	})

	t.Run("empty", func(t *testing.T) {
		s, m := newTestStorage(t)

		m.container.EXPECT().List(ctx, repository.ContainerFilter{Limit: 5}).Return(nil, nil)

		containers, err := s.ListContainers(ctx, ListFilter{Limit: 5})
		require.NoError(t, err)
		assert.NotNil(t, containers)
		assert.Empty(t, containers)
	})

	t.Run("invalid filter", func(t *testing.T) {
		s, _ := newTestStorage(t)

		_, err := s.ListContainers(ctx, ListFilter{Status: "SHIPPED"})
		assert.ErrorIs(t, err, ErrInvalidFilter)

		_, err = s.ListContainers(ctx, ListFilter{Limit: -1})
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})
}

func TestStorage_PayCustomsDuty(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, m := newTestStorage(t)
		row, logs := storedRow(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().GetByIDTx(ctx, m.tx, row.ID).Return(row, nil)
		m.logs.EXPECT().GetByContainerIDTx(ctx, m.tx, row.ID).Return(logs, nil)
		m.container.EXPECT().UpdateTx(ctx, m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ db.Tx, c *repository.Container) error {
				assert.Equal(t, string(clearance.CustomsPaid), c.CustomsStatus)
				assert.Equal(t, string(clearance.OverallCustomsCleared), c.OverallStatus)
				require.NotNil(t, c.PaymentReference)
				assert.Equal(t, "PAY-1", *c.PaymentReference)
				return nil
			})
		m.logs.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ db.Tx, l *repository.ContainerLog) error {
				assert.Equal(t, clearance.ActionCustomsPayment, l.Action)
				assert.Equal(t, "Customs duty paid: ₦185,000.00. Reference: PAY-1", l.Details)
				return nil
			})
		m.outbox.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.tx.EXPECT().Commit(ctx).Return(nil)
		m.cache.EXPECT().Set(ctx, gomock.Any()).Do(func(_ context.Context, c *clearance.Container) {
			assert.False(t, c.Dirty())
			assert.Len(t, c.Logs, 3)
		})

		res, err := s.PayCustomsDuty(ctx, row.ID, decimal.NewFromInt(185000), "PAY-1")
		require.NoError(t, err)
		assert.Equal(t, clearance.CustomsPaid, res.Status)
		assert.Equal(t, "PAY-1", res.Reference)
	})

	t.Run("insufficient payment rolls back", func(t *testing.T) {
		s, m := newTestStorage(t)
		row, logs := storedRow(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().GetByIDTx(ctx, m.tx, row.ID).Return(row, nil)
		m.logs.EXPECT().GetByContainerIDTx(ctx, m.tx, row.ID).Return(logs, nil)
		m.tx.EXPECT().Rollback(ctx).Return(nil)

		_, err := s.PayCustomsDuty(ctx, row.ID, decimal.NewFromInt(1000), "")
		assert.ErrorIs(t, err, clearance.ErrInsufficientPayment)
		assert.ErrorIs(t, err, clearance.ErrGuardViolation)
	})

	t.Run("not found", func(t *testing.T) {
		s, m := newTestStorage(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().GetByIDTx(ctx, m.tx, "NOPE").Return(nil, repository.ErrObjectNotFound)
		m.tx.EXPECT().Rollback(ctx).Return(nil)

		_, err := s.PayCustomsDuty(ctx, "NOPE", decimal.NewFromInt(1), "")
		assert.ErrorIs(t, err, clearance.ErrContainerNotFound)
	})

	t.Run("outbox error rolls back", func(t *testing.T) {
		s, m := newTestStorage(t)
		row, logs := storedRow(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().GetByIDTx(ctx, m.tx, row.ID).Return(row, nil)
		m.logs.EXPECT().GetByContainerIDTx(ctx, m.tx, row.ID).Return(logs, nil)
		m.container.EXPECT().UpdateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.logs.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.outbox.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(errors.New("outbox down"))
		m.tx.EXPECT().Rollback(ctx).Return(nil)

		_, err := s.PayCustomsDuty(ctx, row.ID, decimal.NewFromInt(185000), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to add outbox task")
	})
}

func TestStorage_ValidateContainer(t *testing.T) {
	ctx := context.Background()

	t.Run("read only when already validated", func(t *testing.T) {
		s, m := newTestStorage(t)
		row, logs := storedRow(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().GetByIDTx(ctx, m.tx, row.ID).Return(row, nil)
		m.logs.EXPECT().GetByContainerIDTx(ctx, m.tx, row.ID).Return(logs, nil)
		m.tx.EXPECT().Commit(ctx).Return(nil)
		m.cache.EXPECT().Set(ctx, gomock.Any())

		res, err := s.ValidateContainer(ctx, row.ID, false)
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.False(t, res.Ran)
	})

	t.Run("forced run persists log", func(t *testing.T) {
		s, m := newTestStorage(t)
		row, logs := storedRow(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().GetByIDTx(ctx, m.tx, row.ID).Return(row, nil)
		m.logs.EXPECT().GetByContainerIDTx(ctx, m.tx, row.ID).Return(logs, nil)
		m.container.EXPECT().UpdateTx(ctx, m.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ db.Tx, c *repository.Container) error {
				assert.Equal(t, string(clearance.OverallValidated), c.OverallStatus)
				return nil
			})
		m.logs.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.outbox.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.tx.EXPECT().Commit(ctx).Return(nil)
		m.cache.EXPECT().Set(ctx, gomock.Any())

		res, err := s.ValidateContainer(ctx, row.ID, true)
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.True(t, res.Ran)
	})

	t.Run("commit error", func(t *testing.T) {
		s, m := newTestStorage(t)
		row, logs := storedRow(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.container.EXPECT().GetByIDTx(ctx, m.tx, row.ID).Return(row, nil)
		m.logs.EXPECT().GetByContainerIDTx(ctx, m.tx, row.ID).Return(logs, nil)
		m.container.EXPECT().UpdateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.logs.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.outbox.EXPECT().CreateTx(ctx, m.tx, gomock.Any()).Return(nil)
		m.tx.EXPECT().Commit(ctx).Return(errors.New("connection reset"))

		_, err := s.ValidateContainer(ctx, row.ID, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit transaction")
	})
}

func TestStorage_ReleaseContainer_GuardViolation(t *testing.T) {
	ctx := context.Background()
	s, m := newTestStorage(t)
	row, logs := storedRow(t)

	m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
	m.container.EXPECT().GetByIDTx(ctx, m.tx, row.ID).Return(row, nil)
	m.logs.EXPECT().GetByContainerIDTx(ctx, m.tx, row.ID).Return(logs, nil)
	m.tx.EXPECT().Rollback(ctx).Return(nil)

	_, err := s.ReleaseContainer(ctx, row.ID)
	assert.ErrorIs(t, err, clearance.ErrInspectionNotPassed)
}
