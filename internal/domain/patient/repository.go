package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient with its allocated numbers.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetByPhone returns the earliest-registered patient matching the phone
	// number, or ErrPatientNotFound. Used for walk-in dedup; phone is a
	// best-effort identity key, not a unique one.
	GetByPhone(ctx context.Context, phone string) (*Patient, error)

	// Update applies partial updates to an existing patient record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)

	// SetMedicalRecordNumber backfills the number for patients that predate
	// the numbering scheme.
	SetMedicalRecordNumber(ctx context.Context, id uuid.UUID, mrn string) error

	// List returns a paginated, filtered list of patients.
	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)

	// LastPatientNumber returns the highest patient number starting with
	// prefix, or "" when none exists. Scan-and-increment input.
	LastPatientNumber(ctx context.Context, prefix string) (string, error)

	// LastMedicalRecordNumber is LastPatientNumber for the RM- sequence.
	LastMedicalRecordNumber(ctx context.Context, prefix string) (string, error)
}
