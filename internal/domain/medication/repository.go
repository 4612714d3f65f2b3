package medication

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateMedicationCommand) (*Medication, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByVisit returns the visit's non-deleted medications in the order
	// they were recorded.
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Medication, error)
}
