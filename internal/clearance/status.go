package clearance

import "fmt"

type OverallStatus string

const (
	OverallPendingValidation OverallStatus = "PENDING_VALIDATION"
	OverallValidated         OverallStatus = "VALIDATED"
	OverallPendingCustoms    OverallStatus = "PENDING_CUSTOMS"
	OverallCustomsCleared    OverallStatus = "CUSTOMS_CLEARED"
	OverallPendingInspection OverallStatus = "PENDING_INSPECTION"
	OverallInspectionPassed  OverallStatus = "INSPECTION_PASSED"
	OverallReleased          OverallStatus = "RELEASED"
	OverallFailed            OverallStatus = "FAILED"
)

var overallStatuses = []OverallStatus{
	OverallPendingValidation,
	OverallValidated,
	OverallPendingCustoms,
	OverallCustomsCleared,
	OverallPendingInspection,
	OverallInspectionPassed,
	OverallReleased,
	OverallFailed,
}

func (s OverallStatus) Valid() bool {
	for _, v := range overallStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s OverallStatus) Terminal() bool {
	return s == OverallReleased || s == OverallFailed
}

func ParseOverallStatus(s string) (OverallStatus, error) {
	status := OverallStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown overall status %q", s)
	}
	return status, nil
}

type CustomsStatus string

const (
	CustomsPending         CustomsStatus = "PENDING"
	CustomsPaymentRequired CustomsStatus = "PAYMENT_REQUIRED"
	CustomsPaid            CustomsStatus = "PAID"
	CustomsCleared         CustomsStatus = "CLEARED"
	CustomsRejected        CustomsStatus = "REJECTED"
)

func (s CustomsStatus) Valid() bool {
	switch s {
	case CustomsPending, CustomsPaymentRequired, CustomsPaid, CustomsCleared, CustomsRejected:
		return true
	}
	return false
}

type ShippingStatus string

const (
	ShippingInTransit      ShippingStatus = "IN_TRANSIT"
	ShippingArrived        ShippingStatus = "ARRIVED"
	ShippingDischarged     ShippingStatus = "DISCHARGED"
	ShippingReadyForPickup ShippingStatus = "READY_FOR_PICKUP"
)

func (s ShippingStatus) Valid() bool {
	switch s {
	case ShippingInTransit, ShippingArrived, ShippingDischarged, ShippingReadyForPickup:
		return true
	}
	return false
}

type InspectionStatus string

const (
	InspectionNotScheduled InspectionStatus = "NOT_SCHEDULED"
	InspectionScheduled    InspectionStatus = "SCHEDULED"
	InspectionInProgress   InspectionStatus = "IN_PROGRESS"
	InspectionPassed       InspectionStatus = "PASSED"
	InspectionFailed       InspectionStatus = "FAILED"
)

func (s InspectionStatus) Valid() bool {
	switch s {
	case InspectionNotScheduled, InspectionScheduled, InspectionInProgress, InspectionPassed, InspectionFailed:
		return true
	}
	return false
}
