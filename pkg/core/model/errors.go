package model

import "errors"

// Validation errors for rosters and remote schedule data. All of them are
// fatal to the current load or reconciliation pass; callers match with
// errors.Is and get the offending duty/date/name from the wrapped context.
var (
	ErrDuplicateMidwife    = errors.New("midwife already registered")
	ErrDuplicateAssignment = errors.New("duty already assigned")
	ErrDuplicateRule       = errors.New("midwife already has a forwarding rule")
	ErrInvalidScheduleData = errors.New("invalid schedule data")
	ErrConflictingEvents   = errors.New("conflicting remote events")
	ErrAmbiguousAttendant  = errors.New("expected exactly one auto attendant")
)
