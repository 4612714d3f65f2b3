package catalog

import "errors"

var (
	ErrServiceNotFound    = errors.New("service not found")
	ErrProcedureNotFound  = errors.New("procedure not found")
	ErrPackageNotFound    = errors.New("treatment package not found")
	ErrInvalidCategory    = errors.New("invalid service category")
	ErrInvalidBasePrice   = errors.New("base price must be positive")
	ErrInvalidCommission  = errors.New("commission rate must be between 0 and 100")
	ErrInvalidSessions    = errors.New("sessions count must be at least 1")
)
