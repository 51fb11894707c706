package clearance

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPortOfDischarge = "Lagos, Nigeria"

// Actors recorded in the audit log.
const (
	ActorSystem       = "system"
	ActorAgent        = "agent"
	ActorNPAInspector = "npa_inspector"
)

// Actions recorded in the audit log.
const (
	ActionDocumentUpload      = "document_upload"
	ActionValidation          = "validation"
	ActionValidationFailed    = "validation_failed"
	ActionCustomsAssessment   = "customs_assessment"
	ActionCustomsPayment      = "customs_payment"
	ActionShippingStatusCheck = "shipping_status_check"
	ActionInspectionScheduled = "inspection_scheduled"
	ActionInspectionPassed    = "inspection_passed"
	ActionInspectionFailed    = "inspection_failed"
	ActionContainerReleased   = "container_released"
)

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// ExtractedData is the structured record produced by document ingestion.
// Empty strings mean the field was not found.
type ExtractedData struct {
	ContainerID      string              `json:"container_id"`
	VesselName       string              `json:"vessel_name,omitempty"`
	ImporterName     string              `json:"importer_name,omitempty"`
	ImporterAddress  string              `json:"importer_address,omitempty"`
	TIN              string              `json:"tin,omitempty"`
	PortOfLoading    string              `json:"port_of_loading,omitempty"`
	PortOfDischarge  string              `json:"port_of_discharge,omitempty"`
	CargoDescription string              `json:"cargo_description,omitempty"`
	CargoWeight      decimal.NullDecimal `json:"cargo_weight"`
}

type Container struct {
	ContainerID      string              `json:"container_id"`
	OverallStatus    OverallStatus       `json:"overall_status"`
	VesselName       *string             `json:"vessel_name"`
	ImporterName     *string             `json:"importer_name"`
	ImporterAddress  *string             `json:"importer_address"`
	TIN              *string             `json:"tin"`
	PortOfLoading    *string             `json:"port_of_loading"`
	PortOfDischarge  *string             `json:"port_of_discharge"`
	CargoDescription *string             `json:"cargo_description"`
	CargoWeight      decimal.NullDecimal `json:"cargo_weight"`

	CustomsStatus    CustomsStatus    `json:"customs_status"`
	ShippingStatus   ShippingStatus   `json:"shipping_status"`
	InspectionStatus InspectionStatus `json:"inspection_status"`

	CustomsDutyAmount      decimal.NullDecimal `json:"customs_duty_amount"`
	CustomsPaidAt          *time.Time          `json:"customs_paid_at"`
	PaymentReference       *string             `json:"payment_reference"`
	InspectionScheduledFor *time.Time          `json:"inspection_scheduled_for"`

	OriginalFilename  *string  `json:"original_filename"`
	DocumentValidated bool     `json:"document_validated"`
	ValidationErrors  []string `json:"validation_errors"`

	Logs []LogEntry `json:"logs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// number of leading Logs entries already persisted
	committedLogs int
}

// PendingLogs returns the log entries appended since the container was loaded
// or last marked committed.
func (c *Container) PendingLogs() []LogEntry {
	if c.committedLogs >= len(c.Logs) {
		return nil
	}
	return c.Logs[c.committedLogs:]
}

// MarkCommitted records that every current log entry has been persisted.
func (c *Container) MarkCommitted() {
	c.committedLogs = len(c.Logs)
}

func (c *Container) Dirty() bool {
	return len(c.PendingLogs()) > 0
}

// Version grows with every change: each one appends a log entry and entries
// are never removed.
func (c *Container) Version() int {
	return len(c.Logs)
}

func (c *Container) appendLog(now time.Time, actor, action, details string) {
	c.Logs = append(c.Logs, LogEntry{
		Timestamp: now,
		Actor:     actor,
		Action:    action,
		Details:   details,
	})
	c.UpdatedAt = now
}

// Fields returns the subset of values the validation rules look at.
func (c *Container) Fields() Fields {
	return Fields{
		ContainerID:  c.ContainerID,
		VesselName:   deref(c.VesselName),
		ImporterName: deref(c.ImporterName),
		TIN:          deref(c.TIN),
	}
}

// Clone returns a deep copy that shares no mutable state with c.
func (c *Container) Clone() *Container {
	if c == nil {
		return nil
	}
	cp := *c
	cp.VesselName = cloneString(c.VesselName)
	cp.ImporterName = cloneString(c.ImporterName)
	cp.ImporterAddress = cloneString(c.ImporterAddress)
	cp.TIN = cloneString(c.TIN)
	cp.PortOfLoading = cloneString(c.PortOfLoading)
	cp.PortOfDischarge = cloneString(c.PortOfDischarge)
	cp.CargoDescription = cloneString(c.CargoDescription)
	cp.PaymentReference = cloneString(c.PaymentReference)
	cp.OriginalFilename = cloneString(c.OriginalFilename)
	cp.CustomsPaidAt = cloneTime(c.CustomsPaidAt)
	cp.InspectionScheduledFor = cloneTime(c.InspectionScheduledFor)
	if c.ValidationErrors != nil {
		cp.ValidationErrors = append([]string{}, c.ValidationErrors...)
	}
	if c.Logs != nil {
		cp.Logs = append([]LogEntry{}, c.Logs...)
	}
	return &cp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
