//go:generate mockgen -source ./repositories.go -destination=./mocks/repositories.go -package=mock_storage
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
)

type ContainerRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, c *repository.Container) error
	GetByID(ctx context.Context, id string) (*repository.Container, error)
	GetByIDTx(ctx context.Context, tx db.Tx, id string) (*repository.Container, error)
	UpdateTx(ctx context.Context, tx db.Tx, c *repository.Container) error
	List(ctx context.Context, filter repository.ContainerFilter) ([]*repository.Container, error)
}

type ContainerLogRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, entry *repository.ContainerLog) error
	GetByContainerID(ctx context.Context, containerID string) ([]*repository.ContainerLog, error)
	GetByContainerIDTx(ctx context.Context, tx db.Tx, containerID string) ([]*repository.ContainerLog, error)
	GetByContainerIDs(ctx context.Context, containerIDs []string) ([]*repository.ContainerLog, error)
}

type OutboxTaskRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
	GetProcessableTasksTx(ctx context.Context, tx db.Tx, limit, maxAttempts int, lease time.Duration) ([]*repository.OutboxTask, error)
	UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	CountByStatus(ctx context.Context, db db.DB) (map[repository.TaskStatus]int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, username, password string) error
	Exists(ctx context.Context, username string) (bool, error)
	ValidateUser(ctx context.Context, username, password string) (bool, error)
}

// Cache is a read-through copy of committed containers. Implementations must
// not hand out values shared with other callers.
type Cache interface {
	Get(ctx context.Context, id string) (*clearance.Container, bool)
	Set(ctx context.Context, c *clearance.Container)
	Delete(ctx context.Context, id string)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*clearance.Container, bool) { return nil, false }
func (noopCache) Set(context.Context, *clearance.Container) {}
func (noopCache) Delete(context.Context, string) {}
