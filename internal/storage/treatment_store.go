package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klinikku/clinic-api/internal/domain/treatment"
)

type treatmentStore struct {
	db *gorm.DB
}

func (s *treatmentStore) Create(ctx context.Context, t *treatment.Treatment) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *treatmentStore) GetByID(ctx context.Context, id uuid.UUID) (*treatment.Treatment, error) {
	var t treatment.Treatment
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, treatment.ErrTreatmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *treatmentStore) Update(ctx context.Context, t *treatment.Treatment) error {
	res := s.db.WithContext(ctx).
		Model(&treatment.Treatment{}).
		Where("id = ? AND deleted_at IS NULL", t.ID).
		Updates(map[string]any{
			"tooth_number": t.ToothNumber,
			"diagnosis":    t.Diagnosis,
			"notes":        t.Notes,
			"quantity":     t.Quantity,
			"discount":     t.Discount,
			"subtotal":     t.Subtotal,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return treatment.ErrTreatmentNotFound
	}
	return nil
}

func (s *treatmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&treatment.Treatment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return treatment.ErrTreatmentNotFound
	}
	return nil
}

func (s *treatmentStore) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*treatment.Treatment, error) {
	var treatments []*treatment.Treatment
	err := s.db.WithContext(ctx).
		Where("visit_id = ? AND deleted_at IS NULL", visitID).
		Order("created_at ASC").
		Find(&treatments).Error
	return treatments, err
}

func (s *treatmentStore) List(ctx context.Context, q *treatment.ListTreatmentsQuery) (*treatment.PagedTreatments, error) {
	query := s.db.WithContext(ctx).
		Model(&treatment.Treatment{}).
		Where("deleted_at IS NULL")

	if q.PerformedBy != nil {
		query = query.Where("performed_by = ?", *q.PerformedBy)
	}
	if q.PatientID != nil {
		query = query.Where("patient_id = ?", *q.PatientID)
	}
	if q.DateFrom != nil {
		query = query.Where("created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("created_at <= ?", *q.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting treatments: %w", err)
	}

	var treatments []*treatment.Treatment
	err := query.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&treatments).Error
	if err != nil {
		return nil, err
	}

	return &treatment.PagedTreatments{
		Treatments: treatments,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}
