package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
)

// Storage is the PostgreSQL backed clearance service. Every mutating call runs
// in one transaction that holds the container row lock from load to commit.
type Storage struct {
	operations

	db            db.DB
	engine        *clearance.Engine
	containerRepo ContainerRepository
	logRepo       ContainerLogRepository
	outboxRepo    OutboxTaskRepository
	cache         Cache
	topic         string
	logger        *zap.Logger
}

type Option func(*Storage)

func WithCache(c Cache) Option {
	return func(s *Storage) { s.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Storage) { s.logger = l }
}

func WithEventTopic(topic string) Option {
	return func(s *Storage) { s.topic = topic }
}

func NewStorage(
	database db.DB,
	engine *clearance.Engine,
	containerRepo ContainerRepository,
	logRepo ContainerLogRepository,
	outboxRepo OutboxTaskRepository,
	opts ...Option,
) *Storage {
	s := &Storage{
		db:            database,
		engine:        engine,
		containerRepo: containerRepo,
		logRepo:       logRepo,
		outboxRepo:    outboxRepo,
		cache:         noopCache{},
		topic:         repository.ContainerEventsTopic,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.operations = operations{engine: engine, m: s}
	return s
}

func (s *Storage) CreateContainer(ctx context.Context, data clearance.ExtractedData, filename string) (*clearance.Container, error) {
	c, err := s.engine.NewContainer(data, filename)
	if err != nil {
		recordResult(OpCreate, false, err)
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		recordResult(OpCreate, false, err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.persistTx(ctx, tx, c, true); err != nil {
		s.rollback(ctx, tx)
		if errors.Is(err, repository.ErrDuplicate) {
			err = clearance.ErrDuplicateContainer
		}
		recordResult(OpCreate, false, err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		recordResult(OpCreate, false, err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.MarkCommitted()
	metrics.ContainersCreatedTotal.Inc()
	s.cache.Set(ctx, c)
	s.logger.Info("container created",
		zap.String("container_id", c.ContainerID),
		zap.Bool("document_validated", c.DocumentValidated))
	return c, nil
}

func (s *Storage) GetContainer(ctx context.Context, id string) (*clearance.Container, error) {
	if c, ok := s.cache.Get(ctx, id); ok {
		return c, nil
	}

	row, err := s.containerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, clearance.ErrContainerNotFound
		}
		return nil, fmt.Errorf("failed to get container: %w", err)
	}

	logs, err := s.logRepo.GetByContainerID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get container logs: %w", err)
	}

	c := fromRepoContainer(row, logs)
	s.cache.Set(ctx, c)
	return c, nil
}

func (s *Storage) ListContainers(ctx context.Context, filter ListFilter) ([]*clearance.Container, error) {
	filter, err := filter.normalize()
	if err != nil {
		return nil, err
	}

	repoFilter := repository.ContainerFilter{Limit: filter.Limit}
	if filter.Status != "" {
		repoFilter.Status = &filter.Status
	}

	rows, err := s.containerRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	if len(rows) == 0 {
		return []*clearance.Container{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	logs, err := s.logRepo.GetByContainerIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get container logs: %w", err)
	}

	byContainer := make(map[string][]*repository.ContainerLog, len(rows))
	for _, l := range logs {
		byContainer[l.ContainerID] = append(byContainer[l.ContainerID], l)
	}

	containers := make([]*clearance.Container, len(rows))
	for i, row := range rows {
		containers[i] = fromRepoContainer(row, byContainer[row.ID])
	}
	return containers, nil
}

func (s *Storage) mutate(ctx context.Context, op, id string, fn func(c *clearance.Container) error) (err error) {
	var changed bool
	defer func() { recordResult(op, changed, err) }()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	c, err := s.loadTx(ctx, tx, id)
	if err != nil {
		s.rollback(ctx, tx)
		return err
	}

	if err := fn(c); err != nil {
		s.rollback(ctx, tx)
		return err
	}

	changed = c.Dirty()
	if changed {
		if err := s.persistTx(ctx, tx, c, false); err != nil {
			s.rollback(ctx, tx)
			changed = false
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		changed = false
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if changed {
		s.logger.Debug("container updated",
			zap.String("operation", op),
			zap.String("container_id", id),
			zap.String("overall_status", string(c.OverallStatus)))
	}
	c.MarkCommitted()
	s.cache.Set(ctx, c)
	return nil
}

func (s *Storage) loadTx(ctx context.Context, tx db.Tx, id string) (*clearance.Container, error) {
	row, err := s.containerRepo.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, clearance.ErrContainerNotFound
		}
		return nil, fmt.Errorf("failed to get container: %w", err)
	}

	logs, err := s.logRepo.GetByContainerIDTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get container logs: %w", err)
	}
	return fromRepoContainer(row, logs), nil
}

// persistTx writes the container row, its pending log entries and one outbox
// task per entry.
func (s *Storage) persistTx(ctx context.Context, tx db.Tx, c *clearance.Container, create bool) error {
	row := toRepoContainer(c)
	if create {
		if err := s.containerRepo.CreateTx(ctx, tx, row); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return err
			}
			return fmt.Errorf("failed to add container: %w", err)
		}
	} else if err := s.containerRepo.UpdateTx(ctx, tx, row); err != nil {
		return fmt.Errorf("failed to update container: %w", err)
	}

	for _, entry := range c.PendingLogs() {
		if err := s.logRepo.CreateTx(ctx, tx, toRepoLog(c.ContainerID, entry)); err != nil {
			return fmt.Errorf("failed to add container log entry: %w", err)
		}

		task, err := newEventTask(s.topic, c, entry)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.CreateTx(ctx, tx, task); err != nil {
			return fmt.Errorf("failed to add outbox task: %w", err)
		}
	}
	return nil
}

func (s *Storage) rollback(ctx context.Context, tx db.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		s.logger.Warn("rollback failed", zap.Error(err))
	}
}
