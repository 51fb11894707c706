package storage

import (
	"encoding/json"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
)

func toRepoContainer(c *clearance.Container) *repository.Container {
	return &repository.Container{
		ID:                     c.ContainerID,
		OverallStatus:          string(c.OverallStatus),
		VesselName:             c.VesselName,
		ImporterName:           c.ImporterName,
		ImporterAddress:        c.ImporterAddress,
		TIN:                    c.TIN,
		PortOfLoading:          c.PortOfLoading,
		PortOfDischarge:        c.PortOfDischarge,
		CargoDescription:       c.CargoDescription,
		CargoWeight:            c.CargoWeight,
		CustomsStatus:          string(c.CustomsStatus),
		ShippingStatus:         string(c.ShippingStatus),
		InspectionStatus:       string(c.InspectionStatus),
		CustomsDutyAmount:      c.CustomsDutyAmount,
		CustomsPaidAt:          c.CustomsPaidAt,
		PaymentReference:       c.PaymentReference,
		InspectionScheduledFor: c.InspectionScheduledFor,
		OriginalFilename:       c.OriginalFilename,
		DocumentValidated:      c.DocumentValidated,
		ValidationErrors:       c.ValidationErrors,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

// fromRepoContainer rebuilds the aggregate; every loaded log entry counts as
// already committed.
func fromRepoContainer(row *repository.Container, logs []*repository.ContainerLog) *clearance.Container {
	c := &clearance.Container{
		ContainerID:            row.ID,
		OverallStatus:          clearance.OverallStatus(row.OverallStatus),
		VesselName:             row.VesselName,
		ImporterName:           row.ImporterName,
		ImporterAddress:        row.ImporterAddress,
		TIN:                    row.TIN,
		PortOfLoading:          row.PortOfLoading,
		PortOfDischarge:        row.PortOfDischarge,
		CargoDescription:       row.CargoDescription,
		CargoWeight:            row.CargoWeight,
		CustomsStatus:          clearance.CustomsStatus(row.CustomsStatus),
		ShippingStatus:         clearance.ShippingStatus(row.ShippingStatus),
		InspectionStatus:       clearance.InspectionStatus(row.InspectionStatus),
		CustomsDutyAmount:      row.CustomsDutyAmount,
		CustomsPaidAt:          row.CustomsPaidAt,
		PaymentReference:       row.PaymentReference,
		InspectionScheduledFor: row.InspectionScheduledFor,
		OriginalFilename:       row.OriginalFilename,
		DocumentValidated:      row.DocumentValidated,
		ValidationErrors:       row.ValidationErrors,
		Logs:                   make([]clearance.LogEntry, 0, len(logs)),
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
	for _, l := range logs {
		c.Logs = append(c.Logs, clearance.LogEntry{
			Timestamp: l.LoggedAt,
			Actor:     l.Actor,
			Action:    l.Action,
			Details:   l.Details,
		})
	}
	c.MarkCommitted()
	return c
}

func toRepoLog(containerID string, e clearance.LogEntry) *repository.ContainerLog {
	return &repository.ContainerLog{
		ContainerID: containerID,
		LoggedAt:    e.Timestamp,
		Actor:       e.Actor,
		Action:      e.Action,
		Details:     e.Details,
	}
}

func newEventTask(topic string, c *clearance.Container, e clearance.LogEntry) (*repository.OutboxTask, error) {
	payload, err := json.Marshal(repository.ContainerEvent{
		ContainerID:      c.ContainerID,
		Actor:            e.Actor,
		Action:           e.Action,
		Details:          e.Details,
		OverallStatus:    string(c.OverallStatus),
		CustomsStatus:    string(c.CustomsStatus),
		ShippingStatus:   string(c.ShippingStatus),
		InspectionStatus: string(c.InspectionStatus),
		OccurredAt:       e.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal container event: %w", err)
	}
	return &repository.OutboxTask{
		Payload: payload,
		Topic:   topic,
		Key:     c.ContainerID,
	}, nil
}
