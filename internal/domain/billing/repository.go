package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListPaymentsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Payment, error)

	// SumPaidByVisit returns the cumulative amount paid across all of the
	// visit's payments, counting each tender only up to its billed amount
	// (the excess is change, not payment). Settlement is judged against
	// this, not against any single installment.
	SumPaidByVisit(ctx context.Context, visitID uuid.UUID) (float64, error)

	// LastPaymentNumber returns the highest payment number issued, or ""
	// when no payment exists yet.
	LastPaymentNumber(ctx context.Context) (string, error)

	CreateCommission(ctx context.Context, c *Commission) error

	// GetActiveCommissionByTreatment returns the treatment's non-voided
	// commission, or ErrCommissionNotFound. The deferred materialization
	// path checks this before inserting to avoid double-creation.
	GetActiveCommissionByTreatment(ctx context.Context, treatmentID uuid.UUID) (*Commission, error)

	// UpdateCommissionAmounts re-syncs base and payout amounts after the
	// treatment's subtotal changed.
	UpdateCommissionAmounts(ctx context.Context, id uuid.UUID, baseAmount, commissionAmount float64) error

	// VoidCommissionByTreatment marks the treatment's active commission
	// voided. A no-op when the treatment has none.
	VoidCommissionByTreatment(ctx context.Context, treatmentID uuid.UUID) error

	ListCommissions(ctx context.Context, q *ListCommissionsQuery) ([]*Commission, error)
}
