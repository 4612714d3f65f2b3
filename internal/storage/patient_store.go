package storage

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klinikku/clinic-api/internal/domain/patient"
)

type patientStore struct {
	db *gorm.DB
}

func (s *patientStore) Create(ctx context.Context, p *patient.Patient) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *patientStore) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *patientStore) GetByPhone(ctx context.Context, phone string) (*patient.Patient, error) {
	var p patient.Patient
	err := s.db.WithContext(ctx).
		Where("phone = ? AND deleted_at IS NULL", phone).
		Order("created_at ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *patientStore) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	updates := map[string]any{}
	if cmd.FullName != nil {
		updates["full_name"] = *cmd.FullName
	}
	if cmd.Phone != nil {
		updates["phone"] = *cmd.Phone
	}
	if cmd.Email != nil {
		updates["email"] = *cmd.Email
	}
	if cmd.Address != nil {
		updates["address"] = *cmd.Address
	}
	if cmd.BloodType != nil {
		updates["blood_type"] = *cmd.BloodType
	}
	if cmd.Allergies != nil {
		updates["allergies"] = *cmd.Allergies
	}
	if cmd.MedicalHistory != nil {
		updates["medical_history"] = *cmd.MedicalHistory
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).
			Model(&patient.Patient{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, patient.ErrPatientNotFound
		}
	}

	return s.GetByID(ctx, id)
}

func (s *patientStore) SetMedicalRecordNumber(ctx context.Context, id uuid.UUID, mrn string) error {
	res := s.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ?", id).
		Update("medical_record_number", mrn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (s *patientStore) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	query := s.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("deleted_at IS NULL")

	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where(
			"full_name ILIKE ? OR patient_number ILIKE ? OR medical_record_number ILIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	var patients []*patient.Patient
	err := query.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&patients).Error
	if err != nil {
		return nil, err
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (s *patientStore) LastPatientNumber(ctx context.Context, prefix string) (string, error) {
	return s.lastNumber(ctx, "patient_number", prefix)
}

func (s *patientStore) LastMedicalRecordNumber(ctx context.Context, prefix string) (string, error) {
	return s.lastNumber(ctx, "medical_record_number", prefix)
}

func (s *patientStore) lastNumber(ctx context.Context, column, prefix string) (string, error) {
	var numbers []string
	err := s.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where(column+" LIKE ?", prefix+"%").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}
