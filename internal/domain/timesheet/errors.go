package timesheet

import "errors"

var (
	ErrInvalidTransition  = errors.New("invalid timesheet status transition")
	ErrMissingReason      = errors.New("rejection reason is required")
	ErrDuplicatePeriod    = errors.New("timesheet already exists for this contractor, project and period")
	ErrOutOfRange         = errors.New("value out of range")
	ErrNotFound           = errors.New("timesheet not found")
	ErrNotEditable        = errors.New("timesheet entries can only be changed while in draft")
	ErrProjectNotAssigned = errors.New("project is not assigned to contractor")
	ErrProjectInactive    = errors.New("project is not active")
)
