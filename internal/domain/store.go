package domain

import (
	"context"

	"github.com/klinikku/clinic-api/internal/domain/billing"
	"github.com/klinikku/clinic-api/internal/domain/catalog"
	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/domain/treatment"
	"github.com/klinikku/clinic-api/internal/domain/visit"
)

// Store bundles the engine's repositories behind a single transactional
// boundary. InTx runs fn against a store whose repositories share one
// database transaction; any error rolls the whole unit back.
//
// The treatment cascade and the payment finalizer must never touch the
// repositories outside InTx: a treatment row without its value reflected in
// the visit total is exactly the inconsistency this boundary prevents.
type Store interface {
	Patients() patient.Repository
	Visits() visit.Repository
	Treatments() treatment.Repository
	Catalog() catalog.Repository
	Billing() billing.Repository

	InTx(ctx context.Context, fn func(Store) error) error
}
