package treatment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Treatment) error

	// GetByID retrieves a treatment. Returns ErrTreatmentNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)

	// Update persists the recomputed pricing fields and any changed details.
	Update(ctx context.Context, t *Treatment) error

	// Delete removes the treatment row (soft delete).
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByVisit returns all non-deleted treatments of a visit, oldest first.
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Treatment, error)

	// List returns a paginated, filtered list of treatments.
	List(ctx context.Context, q *ListTreatmentsQuery) (*PagedTreatments, error)
}
