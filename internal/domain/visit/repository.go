package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts the visit row. Returns ErrDuplicateVisitNumber when the
	// visit_number unique constraint rejects the insert; callers retry with a
	// fresh number.
	Create(ctx context.Context, v *Visit) error

	// GetByID retrieves a visit. Returns ErrVisitNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)

	// GetForUpdate retrieves a visit with a row-level lock (SELECT ... FOR
	// UPDATE). Must be called inside a transaction; it serializes concurrent
	// cascades on the same visit.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error)

	// GetByNumber retrieves a visit by its human-readable number.
	GetByNumber(ctx context.Context, visitNumber string) (*Visit, error)

	// AddToTotalCost atomically increments (or with a negative delta,
	// decrements) the visit's running total.
	AddToTotalCost(ctx context.Context, id uuid.UUID, delta float64) error

	// UpdateStatus persists a status transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// Update applies partial field updates outside the cascade path.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateVisitCommand) (*Visit, error)

	// List returns a paginated, filtered list of visits.
	List(ctx context.Context, q *ListVisitsQuery) (*PagedVisits, error)

	// ListQueue returns waiting and in-progress visits for the day, ordered
	// by queue number.
	ListQueue(ctx context.Context, day time.Time) ([]*Visit, error)

	// MaxQueueNumber returns the highest queue number assigned on the given
	// calendar day, or 0 when the day has no visits yet.
	MaxQueueNumber(ctx context.Context, day time.Time) (int, error)
}
