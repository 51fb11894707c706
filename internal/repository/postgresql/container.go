package postgresql

import (
	"context"
	"strconv"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

const containerColumns = `
    container_id, overall_status, vessel_name, importer_name, importer_address, tin,
    port_of_loading, port_of_discharge, cargo_description, cargo_weight,
    customs_status, shipping_status, inspection_status,
    customs_duty_amount, customs_paid_at, payment_reference, inspection_scheduled_for,
    original_filename, document_validated, validation_errors, created_at, updated_at`

type ContainerRepo struct {
	db db.DB
}

func NewContainerRepo(db db.DB) storage.ContainerRepository {
	return &ContainerRepo{db: db}
}

func (r *ContainerRepo) CreateTx(ctx context.Context, tx db.Tx, c *repository.Container) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO containers (`+containerColumns+`
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
    `,
		c.ID, c.OverallStatus, c.VesselName, c.ImporterName, c.ImporterAddress, c.TIN,
		c.PortOfLoading, c.PortOfDischarge, c.CargoDescription, c.CargoWeight,
		c.CustomsStatus, c.ShippingStatus, c.InspectionStatus,
		c.CustomsDutyAmount, c.CustomsPaidAt, c.PaymentReference, c.InspectionScheduledFor,
		c.OriginalFilename, c.DocumentValidated, validationErrors(c.ValidationErrors), c.CreatedAt, c.UpdatedAt,
	)
	return mapError(err)
}

func (r *ContainerRepo) GetByID(ctx context.Context, id string) (*repository.Container, error) {
	var c repository.Container
	err := r.db.Get(ctx, &c, "SELECT "+containerColumns+" FROM containers WHERE container_id = $1", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// GetByIDTx loads the row and locks it until tx ends.
func (r *ContainerRepo) GetByIDTx(ctx context.Context, tx db.Tx, id string) (*repository.Container, error) {
	var c repository.Container
	err := tx.Get(ctx, &c, "SELECT "+containerColumns+" FROM containers WHERE container_id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// UpdateTx writes every mutable column. created_at and the identifier never change.
func (r *ContainerRepo) UpdateTx(ctx context.Context, tx db.Tx, c *repository.Container) error {
	tag, err := tx.Exec(ctx, `
        UPDATE containers
        SET
            overall_status = $2,
            customs_status = $3,
            shipping_status = $4,
            inspection_status = $5,
            customs_duty_amount = $6,
            customs_paid_at = $7,
            payment_reference = $8,
            inspection_scheduled_for = $9,
            document_validated = $10,
            validation_errors = $11,
            updated_at = $12
        WHERE container_id = $1
    `,
		c.ID, c.OverallStatus, c.CustomsStatus, c.ShippingStatus, c.InspectionStatus,
		c.CustomsDutyAmount, c.CustomsPaidAt, c.PaymentReference, c.InspectionScheduledFor,
		c.DocumentValidated, validationErrors(c.ValidationErrors), c.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *ContainerRepo) List(ctx context.Context, filter repository.ContainerFilter) ([]*repository.Container, error) {
	query := "SELECT " + containerColumns + " FROM containers"
	args := []interface{}{}

	if filter.Status != nil {
		query += " WHERE overall_status = $1"
		args = append(args, *filter.Status)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var containers []*repository.Container
	if err := r.db.Select(ctx, &containers, query, args...); err != nil {
		return nil, err
	}
	return containers, nil
}

func validationErrors(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}
