// Package storage implements the domain repositories on GORM/Postgres.
//
// All cross-request coordination happens here: the unique constraints that
// back generate-and-retry allocation, and the row-level locks that serialize
// cascades on a single visit.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/domain/billing"
	"github.com/klinikku/clinic-api/internal/domain/catalog"
	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/domain/treatment"
	"github.com/klinikku/clinic-api/internal/domain/visit"
)

const uniqueViolationCode = "23505"

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Patients() patient.Repository     { return &patientStore{db: s.db} }
func (s *Store) Visits() visit.Repository         { return &visitStore{db: s.db} }
func (s *Store) Treatments() treatment.Repository { return &treatmentStore{db: s.db} }
func (s *Store) Catalog() catalog.Repository      { return &catalogStore{db: s.db} }
func (s *Store) Billing() billing.Repository      { return &billingStore{db: s.db} }

// InTx runs fn against a store bound to a single database transaction. Any
// error from fn rolls back every write made through that store.
func (s *Store) InTx(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation on a constraint whose name contains the given fragment.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode && strings.Contains(pgErr.ConstraintName, constraint)
}
