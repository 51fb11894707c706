package clearance

import (
	"errors"
	"fmt"
)

// Error categories. Callers branch on these with errors.Is; every specific
// error below wraps exactly one of them.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrGuardViolation = errors.New("guard violation")
	ErrDocumentParse  = errors.New("document parsing failed")
)

var (
	ErrContainerNotFound  = fmt.Errorf("%w: container not found", ErrNotFound)
	ErrDuplicateContainer = fmt.Errorf("%w: container already exists", ErrConflict)
	ErrAlreadyPaid        = fmt.Errorf("%w: customs duty has already been paid", ErrConflict)
	ErrAlreadyScheduled   = fmt.Errorf("%w: inspection is already scheduled", ErrConflict)
	ErrTerminalState      = fmt.Errorf("%w: container is in a terminal state", ErrConflict)

	ErrMissingContainerID  = fmt.Errorf("%w: container id is required", ErrDocumentParse)
	ErrInsufficientPayment = fmt.Errorf("%w: insufficient payment", ErrGuardViolation)
	ErrInvalidPayment      = fmt.Errorf("%w: payment amount must be positive", ErrGuardViolation)
	ErrCustomsNotCleared   = fmt.Errorf("%w: customs duty must be paid before scheduling inspection", ErrGuardViolation)
	ErrInspectionNotPassed = fmt.Errorf("%w: container must pass inspection before release", ErrGuardViolation)
)
