package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

var errShutdown = errors.New("publisher shutdown during batch processing")

const (
	defaultClaimLease = time.Minute
	releaseTimeout    = 5 * time.Second
)

type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	// ClaimLease is how long a PROCESSING task stays owned by the publisher
	// that claimed it before another poll may take it over.
	ClaimLease time.Duration
}

// Publisher relays outbox tasks to the broker. Tasks are claimed and marked
// PROCESSING in one transaction, then sent one by one outside of it.
type Publisher struct {
	db             db.DB
	repo           storage.OutboxTaskRepository
	producer       Producer
	config         PublisherConfig
	logger         *zap.Logger
	timeNow        func() time.Time
	wg             sync.WaitGroup
	shutdownSignal chan struct{}
	stopOnce       sync.Once
}

func NewPublisher(database db.DB, repo storage.OutboxTaskRepository, producer Producer, config PublisherConfig, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ClaimLease <= 0 {
		config.ClaimLease = defaultClaimLease
	}
	return &Publisher{
		db:             database,
		repo:           repo,
		producer:       producer,
		config:         config,
		logger:         logger,
		timeNow:        time.Now,
		shutdownSignal: make(chan struct{}),
	}
}

// Run polls until ctx is cancelled or Shutdown is called.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("starting outbox publisher",
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Int("batch_size", p.config.BatchSize))
	p.wg.Add(1)
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil && !errors.Is(err, errShutdown) && ctx.Err() == nil {
				p.logger.Error("outbox publisher failed to process batch", zap.Error(err))
			}
			p.sampleBacklog(ctx)
		case <-p.shutdownSignal:
			p.logger.Info("outbox publisher received shutdown signal")
			return nil
		case <-ctx.Done():
			p.logger.Info("outbox publisher context cancelled")
			return nil
		}
	}
}

// Shutdown stops Run, waits for the current batch and closes the producer.
func (p *Publisher) Shutdown() {
	p.stopOnce.Do(func() {
		p.logger.Info("initiating outbox publisher shutdown")
		close(p.shutdownSignal)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			p.logger.Info("outbox publisher shutdown complete")
		case <-time.After(30 * time.Second):
			p.logger.Warn("outbox publisher shutdown timed out")
		}

		if err := p.producer.Close(); err != nil {
			p.logger.Error("failed to close producer", zap.Error(err))
		}
	})
}

func (p *Publisher) processBatch(ctx context.Context) error {
	tasks, err := p.claim(ctx)
	if err != nil || len(tasks) == 0 {
		return err
	}

	p.logger.Debug("outbox publisher claimed tasks", zap.Int("count", len(tasks)))

	for i, task := range tasks {
		select {
		case <-p.shutdownSignal:
			p.release(ctx, tasks[i:])
			return errShutdown
		case <-ctx.Done():
			p.release(ctx, tasks[i:])
			return ctx.Err()
		default:
		}

		if err := p.processSingleTask(ctx, task); err != nil {
			p.logger.Error("failed to process task", zap.Stringer("task_id", task.ID), zap.Error(err))
		}
	}
	return nil
}

func (p *Publisher) claim(ctx context.Context) ([]*repository.OutboxTask, error) {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for fetching tasks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	tasks, err := p.repo.GetProcessableTasksTx(ctx, tx, p.config.BatchSize, p.config.MaxAttempts, p.config.ClaimLease)
	if err != nil {
		return nil, fmt.Errorf("failed to get processable tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, tx.Commit(ctx)
	}

	for _, task := range tasks {
		err := p.repo.UpdateTaskStatusTx(ctx, tx, task.ID, repository.TaskStatusProcessing, task.Attempts, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to mark task %s as PROCESSING: %w", task.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction after marking tasks as PROCESSING: %w", err)
	}
	return tasks, nil
}

// release hands claimed but unsent tasks back with their previous status so
// the next poll picks them up without waiting for the claim lease. Tasks it
// fails to release are reclaimed once the lease expires.
func (p *Publisher) release(ctx context.Context, tasks []*repository.OutboxTask) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	for _, task := range tasks {
		status := task.Status
		if status == repository.TaskStatusProcessing {
			status = repository.TaskStatusCreated
		}
		if err := p.repo.UpdateTaskStatus(ctx, p.db, task.ID, status, task.Attempts, task.LastError, nil); err != nil {
			p.logger.Warn("failed to release task, it will be reclaimed after the lease",
				zap.Stringer("task_id", task.ID),
				zap.Duration("lease", p.config.ClaimLease),
				zap.Error(err))
			continue
		}
		p.logger.Info("released unsent task", zap.Stringer("task_id", task.ID), zap.String("status", string(status)))
	}
}

func (p *Publisher) processSingleTask(ctx context.Context, task *repository.OutboxTask) error {
	key := []byte(task.Key)
	if len(key) == 0 {
		key = []byte(task.ID.String())
	}

	if err := p.producer.SendMessage(ctx, task.Topic, key, task.Payload); err != nil {
		metrics.OutboxTasksFailedTotal.Inc()
		attempts := task.Attempts + 1
		errMsg := err.Error()

		if attempts >= p.config.MaxAttempts {
			p.logger.Error("task reached max attempts and will not be retried",
				zap.Stringer("task_id", task.ID),
				zap.Int("max_attempts", p.config.MaxAttempts))
		}

		if updateErr := p.repo.UpdateTaskStatus(ctx, p.db, task.ID, repository.TaskStatusFailed, attempts, &errMsg, nil); updateErr != nil {
			return fmt.Errorf("failed to update task status after send failure: %w (send error: %v)", updateErr, err)
		}
		return err
	}

	metrics.OutboxTasksPublishedTotal.Inc()
	now := p.timeNow().UTC()
	if err := p.repo.UpdateTaskStatus(ctx, p.db, task.ID, repository.TaskStatusDone, task.Attempts+1, nil, &now); err != nil {
		return fmt.Errorf("failed to update task status after successful send: %w", err)
	}
	return nil
}

func (p *Publisher) sampleBacklog(ctx context.Context) {
	counts, err := p.repo.CountByStatus(ctx, p.db)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("failed to sample outbox backlog", zap.Error(err))
		}
		return
	}
	for _, status := range []repository.TaskStatus{
		repository.TaskStatusCreated,
		repository.TaskStatusProcessing,
		repository.TaskStatusFailed,
		repository.TaskStatusDone,
	} {
		metrics.OutboxBacklog.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
