package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

// ContainerLogRepo stores the audit trail. Rows are only ever inserted; the
// table trigger rejects updates and deletes.
type ContainerLogRepo struct {
	db db.DB
}

func NewContainerLogRepo(db db.DB) storage.ContainerLogRepository {
	return &ContainerLogRepo{db: db}
}

func (r *ContainerLogRepo) CreateTx(ctx context.Context, tx db.Tx, entry *repository.ContainerLog) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO container_logs (
            container_id, logged_at, actor, action, details
        ) VALUES ($1, $2, $3, $4, $5)
    `, entry.ContainerID, entry.LoggedAt, entry.Actor, entry.Action, entry.Details)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

func (r *ContainerLogRepo) GetByContainerID(ctx context.Context, containerID string) ([]*repository.ContainerLog, error) {
	var entries []*repository.ContainerLog
	err := r.db.Select(ctx, &entries, `
        SELECT id, container_id, logged_at, actor, action, details
        FROM container_logs
        WHERE container_id = $1
        ORDER BY id ASC
    `, containerID)
	return entries, err
}

func (r *ContainerLogRepo) GetByContainerIDTx(ctx context.Context, tx db.Tx, containerID string) ([]*repository.ContainerLog, error) {
	var entries []*repository.ContainerLog
	err := tx.Select(ctx, &entries, `
        SELECT id, container_id, logged_at, actor, action, details
        FROM container_logs
        WHERE container_id = $1
        ORDER BY id ASC
    `, containerID)
	return entries, err
}

func (r *ContainerLogRepo) GetByContainerIDs(ctx context.Context, containerIDs []string) ([]*repository.ContainerLog, error) {
	if len(containerIDs) == 0 {
		return nil, nil
	}
	var entries []*repository.ContainerLog
	err := r.db.Select(ctx, &entries, `
        SELECT id, container_id, logged_at, actor, action, details
        FROM container_logs
        WHERE container_id = ANY($1)
        ORDER BY container_id, id ASC
    `, containerIDs)
	return entries, err
}
