package clearance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	paymentReferencePrefix = "PAY"
	paymentReferenceLayout = "20060102150405"
	scheduleLayout         = "2006-01-02T15:04:05"
	inspectionHour         = 10
)

var printer = message.NewPrinter(language.English)

// FormatNaira renders an amount the way it appears in audit details.
func FormatNaira(amount decimal.Decimal) string {
	return printer.Sprintf("₦%.2f", amount.InexactFloat64())
}

// Engine applies clearance operations to a single Container. It performs no
// I/O; callers are responsible for loading the container under an exclusive
// lock and persisting it, together with its pending log entries, afterwards.
type Engine struct {
	timeNow   func() time.Time
	duty      DutyPolicy
	validator *Validator
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.timeNow = now }
}

func WithDutyPolicy(p DutyPolicy) Option {
	return func(e *Engine) { e.duty = p }
}

func WithValidator(v *Validator) Option {
	return func(e *Engine) { e.validator = v }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeNow:   time.Now,
		duty:      DefaultDutyPolicy(),
		validator: NewValidator(true),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type ValidationResult struct {
	ContainerID string   `json:"container_id"`
	Valid       bool     `json:"is_valid"`
	Errors      []string `json:"errors"`
	// Ran is false when the existing validation state was returned unchanged.
	Ran bool `json:"-"`
}

type CustomsStatusResult struct {
	ContainerID string              `json:"container_id"`
	Status      CustomsStatus       `json:"customs_status"`
	AmountDue   decimal.NullDecimal `json:"amount_due"`
	DutyAmount  decimal.NullDecimal `json:"-"`
}

type PaymentResult struct {
	ContainerID string          `json:"container_id"`
	Status      CustomsStatus   `json:"status"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaidAt      time.Time       `json:"payment_date"`
	Reference   string          `json:"payment_reference"`
}

type ShippingStatusResult struct {
	ContainerID     string         `json:"container_id"`
	ShippingStatus  ShippingStatus `json:"shipping_status"`
	VesselName      *string        `json:"vessel_name"`
	PortOfDischarge *string        `json:"port_of_discharge"`
}

type InspectionScheduleResult struct {
	ContainerID      string           `json:"container_id"`
	InspectionStatus InspectionStatus `json:"inspection_status"`
	ScheduledDate    time.Time        `json:"-"`
}

// ScheduledDateString is the placeholder schedule in the wire format.
func (r InspectionScheduleResult) ScheduledDateString() string {
	return r.ScheduledDate.Format(scheduleLayout)
}

type InspectionResult struct {
	ContainerID      string           `json:"container_id"`
	InspectionStatus InspectionStatus `json:"inspection_status"`
	OverallStatus    OverallStatus    `json:"overall_status"`
}

type ReleaseResult struct {
	ContainerID    string         `json:"container_id"`
	OverallStatus  OverallStatus  `json:"overall_status"`
	ShippingStatus ShippingStatus `json:"shipping_status"`
}

// NewContainer builds a freshly ingested container. Uniqueness of the
// identifier is checked by the storage layer.
func (e *Engine) NewContainer(data ExtractedData, filename string) (*Container, error) {
	id := strings.TrimSpace(data.ContainerID)
	if id == "" {
		return nil, ErrMissingContainerID
	}
	if data.CargoWeight.Valid && data.CargoWeight.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: cargo weight must not be negative", ErrDocumentParse)
	}

	now := e.timeNow().UTC()
	port := data.PortOfDischarge
	if port == "" {
		port = DefaultPortOfDischarge
	}

	c := &Container{
		ContainerID:      id,
		OverallStatus:    OverallPendingValidation,
		VesselName:       optional(data.VesselName),
		ImporterName:     optional(data.ImporterName),
		ImporterAddress:  optional(data.ImporterAddress),
		TIN:              optional(data.TIN),
		PortOfLoading:    optional(data.PortOfLoading),
		PortOfDischarge:  optional(port),
		CargoDescription: optional(data.CargoDescription),
		CargoWeight:      data.CargoWeight,
		CustomsStatus:    CustomsPending,
		ShippingStatus:   ShippingDischarged,
		InspectionStatus: InspectionNotScheduled,
		OriginalFilename: optional(filename),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	report := e.validator.Validate(c.Fields())
	c.ValidationErrors = report.Messages()
	c.DocumentValidated = report.Valid(e.validator.AdvisoryBlocks)

	c.appendLog(now, ActorSystem, ActionDocumentUpload, "Bill of Lading uploaded: "+filename)
	return c, nil
}

// Validate re-runs the validation rules when forced or when the document has
// not been validated yet. Otherwise it returns the stored validation state
// without touching the container. Only PENDING_VALIDATION advances, so a
// terminal container keeps its status.
func (e *Engine) Validate(c *Container, force bool) ValidationResult {
	if !force && c.DocumentValidated {
		return ValidationResult{
			ContainerID: c.ContainerID,
			Valid:       c.DocumentValidated,
			Errors:      nonNil(c.ValidationErrors),
		}
	}

	now := e.timeNow().UTC()
	report := e.validator.Validate(c.Fields())
	c.ValidationErrors = report.Messages()
	c.DocumentValidated = report.Valid(e.validator.AdvisoryBlocks)

	if c.DocumentValidated {
		if c.OverallStatus == OverallPendingValidation {
			c.OverallStatus = OverallValidated
		}
		c.appendLog(now, ActorAgent, ActionValidation, "Document validation passed")
	} else {
		c.appendLog(now, ActorAgent, ActionValidationFailed,
			"Validation errors: "+strings.Join(c.ValidationErrors, ", "))
	}

	return ValidationResult{
		ContainerID: c.ContainerID,
		Valid:       c.DocumentValidated,
		Errors:      nonNil(c.ValidationErrors),
		Ran:         true,
	}
}

// CheckCustoms assesses the duty on first call and moves a pending customs
// status to PAYMENT_REQUIRED. Later calls only read. The overall status is
// never touched.
func (e *Engine) CheckCustoms(c *Container) CustomsStatusResult {
	if !c.CustomsDutyAmount.Valid {
		now := e.timeNow().UTC()
		amount := e.duty.Assess(c)
		c.CustomsDutyAmount = decimal.NewNullDecimal(amount)
		if c.CustomsStatus == CustomsPending {
			c.CustomsStatus = CustomsPaymentRequired
		}
		c.appendLog(now, ActorAgent, ActionCustomsAssessment, "Customs duty assessed: "+FormatNaira(amount))
	}

	res := CustomsStatusResult{
		ContainerID: c.ContainerID,
		Status:      c.CustomsStatus,
		DutyAmount:  c.CustomsDutyAmount,
	}
	if c.CustomsStatus == CustomsPaymentRequired {
		res.AmountDue = c.CustomsDutyAmount
	}
	return res
}

// Pay records a customs duty payment. Overpayment is accepted as is.
func (e *Engine) Pay(c *Container, amount decimal.Decimal, reference string) (PaymentResult, error) {
	if c.CustomsStatus == CustomsPaid {
		return PaymentResult{}, ErrAlreadyPaid
	}
	if !amount.IsPositive() {
		return PaymentResult{}, ErrInvalidPayment
	}
	if c.CustomsDutyAmount.Valid && amount.LessThan(c.CustomsDutyAmount.Decimal) {
		return PaymentResult{}, fmt.Errorf("%w: amount due %s", ErrInsufficientPayment, FormatNaira(c.CustomsDutyAmount.Decimal))
	}
	if c.OverallStatus.Terminal() {
		return PaymentResult{}, ErrTerminalState
	}

	now := e.timeNow().UTC()
	if reference == "" {
		reference = paymentReferencePrefix + e.timeNow().Format(paymentReferenceLayout)
	}

	c.CustomsStatus = CustomsPaid
	c.CustomsPaidAt = &now
	c.PaymentReference = &reference
	c.OverallStatus = OverallCustomsCleared
	c.appendLog(now, ActorAgent, ActionCustomsPayment,
		fmt.Sprintf("Customs duty paid: %s. Reference: %s", FormatNaira(amount), reference))

	return PaymentResult{
		ContainerID: c.ContainerID,
		Status:      c.CustomsStatus,
		AmountPaid:  amount,
		PaidAt:      now,
		Reference:   reference,
	}, nil
}

// CheckShipping never changes a status, but every query is audited because
// the shipping status belongs to the port authority.
func (e *Engine) CheckShipping(c *Container) ShippingStatusResult {
	c.appendLog(e.timeNow().UTC(), ActorAgent, ActionShippingStatusCheck,
		"Shipping status queried: "+string(c.ShippingStatus))

	return ShippingStatusResult{
		ContainerID:     c.ContainerID,
		ShippingStatus:  c.ShippingStatus,
		VesselName:      c.VesselName,
		PortOfDischarge: c.PortOfDischarge,
	}
}

// ScheduleInspection books the placeholder slot: the next calendar day at
// 10:00 in the clock's location.
func (e *Engine) ScheduleInspection(c *Container) (InspectionScheduleResult, error) {
	if c.CustomsStatus != CustomsPaid {
		return InspectionScheduleResult{}, ErrCustomsNotCleared
	}
	if c.OverallStatus.Terminal() {
		return InspectionScheduleResult{}, ErrTerminalState
	}
	if c.InspectionStatus == InspectionScheduled {
		return InspectionScheduleResult{}, ErrAlreadyScheduled
	}

	local := e.timeNow()
	next := local.AddDate(0, 0, 1)
	slot := time.Date(next.Year(), next.Month(), next.Day(), inspectionHour, 0, 0, 0, next.Location())

	c.InspectionStatus = InspectionScheduled
	c.OverallStatus = OverallPendingInspection
	c.InspectionScheduledFor = &slot
	c.appendLog(local.UTC(), ActorAgent, ActionInspectionScheduled,
		"Physical inspection scheduled for "+slot.Format(scheduleLayout))

	return InspectionScheduleResult{
		ContainerID:      c.ContainerID,
		InspectionStatus: c.InspectionStatus,
		ScheduledDate:    slot,
	}, nil
}

// CompleteInspection records the inspector's verdict. It does not require a
// prior schedule.
func (e *Engine) CompleteInspection(c *Container, passed bool) (InspectionResult, error) {
	if c.OverallStatus.Terminal() {
		return InspectionResult{}, ErrTerminalState
	}

	now := e.timeNow().UTC()
	if passed {
		c.InspectionStatus = InspectionPassed
		c.OverallStatus = OverallInspectionPassed
		c.appendLog(now, ActorNPAInspector, ActionInspectionPassed, "Physical inspection completed successfully")
	} else {
		c.InspectionStatus = InspectionFailed
		c.OverallStatus = OverallFailed
		c.appendLog(now, ActorNPAInspector, ActionInspectionFailed, "Physical inspection failed")
	}

	return InspectionResult{
		ContainerID:      c.ContainerID,
		InspectionStatus: c.InspectionStatus,
		OverallStatus:    c.OverallStatus,
	}, nil
}

func (e *Engine) Release(c *Container) (ReleaseResult, error) {
	if c.InspectionStatus != InspectionPassed {
		return ReleaseResult{}, ErrInspectionNotPassed
	}
	if c.OverallStatus.Terminal() {
		return ReleaseResult{}, ErrTerminalState
	}

	c.OverallStatus = OverallReleased
	c.ShippingStatus = ShippingReadyForPickup
	c.appendLog(e.timeNow().UTC(), ActorAgent, ActionContainerReleased, "Container cleared and released for pickup")

	return ReleaseResult{
		ContainerID:    c.ContainerID,
		OverallStatus:  c.OverallStatus,
		ShippingStatus: c.ShippingStatus,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
