package repository

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrObjectNotFound = errors.New("not found")
	ErrDuplicate      = errors.New("duplicate key")
)

type Container struct {
	ID                     string              `db:"container_id"`
	OverallStatus          string              `db:"overall_status"`
	VesselName             *string             `db:"vessel_name"`
	ImporterName           *string             `db:"importer_name"`
	ImporterAddress        *string             `db:"importer_address"`
	TIN                    *string             `db:"tin"`
	PortOfLoading          *string             `db:"port_of_loading"`
	PortOfDischarge        *string             `db:"port_of_discharge"`
	CargoDescription       *string             `db:"cargo_description"`
	CargoWeight            decimal.NullDecimal `db:"cargo_weight"`
	CustomsStatus          string              `db:"customs_status"`
	ShippingStatus         string              `db:"shipping_status"`
	InspectionStatus       string              `db:"inspection_status"`
	CustomsDutyAmount      decimal.NullDecimal `db:"customs_duty_amount"`
	CustomsPaidAt          *time.Time          `db:"customs_paid_at"`
	PaymentReference       *string             `db:"payment_reference"`
	InspectionScheduledFor *time.Time          `db:"inspection_scheduled_for"`
	OriginalFilename       *string             `db:"original_filename"`
	DocumentValidated      bool                `db:"document_validated"`
	ValidationErrors       []string            `db:"validation_errors"`
	CreatedAt              time.Time           `db:"created_at"`
	UpdatedAt              time.Time           `db:"updated_at"`
}

type ContainerLog struct {
	ID          int64     `db:"id"`
	ContainerID string    `db:"container_id"`
	LoggedAt    time.Time `db:"logged_at"`
	Actor       string    `db:"actor"`
	Action      string    `db:"action"`
	Details     string    `db:"details"`
}

type ContainerFilter struct {
	Status *string
	Limit  int
}

type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Password string `db:"password"`
}
