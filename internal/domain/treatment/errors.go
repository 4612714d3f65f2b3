package treatment

import "errors"

var (
	ErrTreatmentNotFound = errors.New("treatment not found")
	// ErrNotPerformer rejects update/delete by anyone other than the staff
	// member who performed the treatment, regardless of role.
	ErrNotPerformer     = errors.New("only the performing staff member may modify this treatment")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidDiscount  = errors.New("discount cannot be negative or exceed the line total")
)
