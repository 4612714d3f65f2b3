package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klinikku/clinic-api/internal/domain/medication"
)

// MedicationStore implements medication.Repository. Medications sit outside
// the transactional cascade, so the store is wired standalone rather than
// through the aggregate.
type MedicationStore struct {
	db *gorm.DB
}

func NewMedicationStore(db *gorm.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

func (s *MedicationStore) Create(ctx context.Context, m *medication.Medication) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *MedicationStore) GetByID(ctx context.Context, id uuid.UUID) (*medication.Medication, error) {
	var m medication.Medication
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, medication.ErrMedicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MedicationStore) Update(ctx context.Context, id uuid.UUID, cmd *medication.UpdateMedicationCommand) (*medication.Medication, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Quantity != nil {
		updates["quantity"] = *cmd.Quantity
	}
	if cmd.Instructions != nil {
		updates["instructions"] = *cmd.Instructions
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).
			Model(&medication.Medication{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, medication.ErrMedicationNotFound
		}
	}

	return s.GetByID(ctx, id)
}

func (s *MedicationStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&medication.Medication{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return medication.ErrMedicationNotFound
	}
	return nil
}

func (s *MedicationStore) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*medication.Medication, error) {
	var medications []*medication.Medication
	err := s.db.WithContext(ctx).
		Where("visit_id = ? AND deleted_at IS NULL", visitID).
		Order("created_at ASC").
		Find(&medications).Error
	return medications, err
}
