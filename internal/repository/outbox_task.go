package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "DONE"
)

const ContainerEventsTopic = "container_events"

type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Status      TaskStatus      `db:"status"`
	Payload     json.RawMessage `db:"payload"`
	Topic       string          `db:"topic"`
	Key         string          `db:"message_key"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}

// ContainerEvent is the outbox payload published for every audit log entry.
type ContainerEvent struct {
	ContainerID      string    `json:"container_id"`
	Actor            string    `json:"actor"`
	Action           string    `json:"action"`
	Details          string    `json:"details"`
	OverallStatus    string    `json:"overall_status"`
	CustomsStatus    string    `json:"customs_status"`
	ShippingStatus   string    `json:"shipping_status"`
	InspectionStatus string    `json:"inspection_status"`
	OccurredAt       time.Time `json:"occurred_at"`
}
