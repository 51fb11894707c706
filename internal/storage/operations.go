package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
)

const DefaultListLimit = 100

// Operation names used in metrics and logs.
const (
	OpCreate             = "create"
	OpValidate           = "validate"
	OpCustomsStatus      = "customs_status"
	OpCustomsPay         = "customs_pay"
	OpShippingStatus     = "shipping_status"
	OpScheduleInspection = "inspection_schedule"
	OpCompleteInspection = "inspection_complete"
	OpRelease            = "release"
)

var ErrInvalidFilter = errors.New("invalid filter")

type ListFilter struct {
	// Status restricts the result to one overall status when non-empty.
	Status string
	Limit  int
}

func (f ListFilter) normalize() (ListFilter, error) {
	if f.Status != "" {
		if _, err := clearance.ParseOverallStatus(f.Status); err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
	}
	if f.Limit < 0 {
		return f, fmt.Errorf("%w: limit must not be negative", ErrInvalidFilter)
	}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	return f, nil
}

// mutator runs fn against the current state of one container while holding
// that container's exclusive lock, and persists the result together with the
// log entries fn appended. An error from fn leaves the stored state untouched.
type mutator interface {
	mutate(ctx context.Context, op, id string, fn func(c *clearance.Container) error) error
}

// operations implements the clearance API once for every backend.
type operations struct {
	engine *clearance.Engine
	m      mutator
}

func (o operations) ValidateContainer(ctx context.Context, id string, force bool) (clearance.ValidationResult, error) {
	var res clearance.ValidationResult
	err := o.m.mutate(ctx, OpValidate, id, func(c *clearance.Container) error {
		res = o.engine.Validate(c, force)
		return nil
	})
	return res, err
}

func (o operations) CheckCustomsStatus(ctx context.Context, id string) (clearance.CustomsStatusResult, error) {
	var res clearance.CustomsStatusResult
	err := o.m.mutate(ctx, OpCustomsStatus, id, func(c *clearance.Container) error {
		res = o.engine.CheckCustoms(c)
		return nil
	})
	return res, err
}

func (o operations) PayCustomsDuty(ctx context.Context, id string, amount decimal.Decimal, reference string) (clearance.PaymentResult, error) {
	var res clearance.PaymentResult
	err := o.m.mutate(ctx, OpCustomsPay, id, func(c *clearance.Container) error {
		var err error
		res, err = o.engine.Pay(c, amount, reference)
		return err
	})
	return res, err
}

func (o operations) CheckShippingStatus(ctx context.Context, id string) (clearance.ShippingStatusResult, error) {
	var res clearance.ShippingStatusResult
	err := o.m.mutate(ctx, OpShippingStatus, id, func(c *clearance.Container) error {
		res = o.engine.CheckShipping(c)
		return nil
	})
	return res, err
}

func (o operations) ScheduleInspection(ctx context.Context, id string) (clearance.InspectionScheduleResult, error) {
	var res clearance.InspectionScheduleResult
	err := o.m.mutate(ctx, OpScheduleInspection, id, func(c *clearance.Container) error {
		var err error
		res, err = o.engine.ScheduleInspection(c)
		return err
	})
	return res, err
}

func (o operations) CompleteInspection(ctx context.Context, id string, passed bool) (clearance.InspectionResult, error) {
	var res clearance.InspectionResult
	err := o.m.mutate(ctx, OpCompleteInspection, id, func(c *clearance.Container) error {
		var err error
		res, err = o.engine.CompleteInspection(c, passed)
		return err
	})
	return res, err
}

func (o operations) ReleaseContainer(ctx context.Context, id string) (clearance.ReleaseResult, error) {
	var res clearance.ReleaseResult
	err := o.m.mutate(ctx, OpRelease, id, func(c *clearance.Container) error {
		var err error
		res, err = o.engine.Release(c)
		return err
	})
	return res, err
}

func recordResult(op string, changed bool, err error) {
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues(op).Inc()
		return
	}
	if changed {
		metrics.OperationsTotal.WithLabelValues(op).Inc()
	}
}
