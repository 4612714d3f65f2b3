package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/klinikku/clinic-api/internal/domain/visit"
)

type visitStore struct {
	db *gorm.DB
}

func (s *visitStore) Create(ctx context.Context, v *visit.Visit) error {
	err := s.db.WithContext(ctx).Create(v).Error
	if isUniqueViolation(err, "visit_number") {
		return visit.ErrDuplicateVisitNumber
	}
	return err
}

func (s *visitStore) GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	var v visit.Visit
	err := s.db.WithContext(ctx).
		Preload("Patient").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, visit.ErrVisitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetForUpdate takes a row-level lock on the visit. Inside a transaction this
// blocks any concurrent cascade on the same visit until commit, closing the
// lost-update window on total_cost.
func (s *visitStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	var v visit.Visit
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, visit.ErrVisitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *visitStore) GetByNumber(ctx context.Context, visitNumber string) (*visit.Visit, error) {
	var v visit.Visit
	err := s.db.WithContext(ctx).
		Preload("Patient").
		Where("visit_number = ? AND deleted_at IS NULL", visitNumber).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, visit.ErrVisitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *visitStore) AddToTotalCost(ctx context.Context, id uuid.UUID, delta float64) error {
	res := s.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("id = ?", id).
		UpdateColumn("total_cost", gorm.Expr("total_cost + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return visit.ErrVisitNotFound
	}
	return nil
}

func (s *visitStore) UpdateStatus(ctx context.Context, id uuid.UUID, status visit.Status) error {
	res := s.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return visit.ErrVisitNotFound
	}
	return nil
}

func (s *visitStore) Update(ctx context.Context, id uuid.UUID, cmd *visit.UpdateVisitCommand) (*visit.Visit, error) {
	updates := map[string]any{}
	if cmd.VisitDate != nil {
		updates["visit_date"] = *cmd.VisitDate
		updates["visit_day"] = visit.DayOf(*cmd.VisitDate)
	}
	if cmd.ChiefComplaint != nil {
		updates["chief_complaint"] = *cmd.ChiefComplaint
	}
	if cmd.BloodPressure != nil {
		updates["blood_pressure"] = *cmd.BloodPressure
	}
	if cmd.Notes != nil {
		updates["notes"] = *cmd.Notes
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).
			Model(&visit.Visit{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, visit.ErrVisitNotFound
		}
	}

	return s.GetByID(ctx, id)
}

func (s *visitStore) List(ctx context.Context, q *visit.ListVisitsQuery) (*visit.PagedVisits, error) {
	query := s.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("clinical.visits.deleted_at IS NULL")

	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where(
			`visit_number ILIKE ? OR patient_id IN (
				SELECT id FROM clinical.patients
				WHERE full_name ILIKE ? OR patient_number ILIKE ? OR medical_record_number ILIKE ?
			)`,
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting visits: %w", err)
	}

	var visits []*visit.Visit
	err := query.
		Preload("Patient").
		Order("visit_date DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&visits).Error
	if err != nil {
		return nil, err
	}

	return &visit.PagedVisits{
		Visits:     visits,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (s *visitStore) ListQueue(ctx context.Context, day time.Time) ([]*visit.Visit, error) {
	var visits []*visit.Visit
	err := s.db.WithContext(ctx).
		Preload("Patient").
		Where("visit_day = ? AND status IN ? AND deleted_at IS NULL",
			day.Format("2006-01-02"),
			[]visit.Status{visit.StatusWaiting, visit.StatusInProgress},
		).
		Order("queue_number ASC").
		Find(&visits).Error
	return visits, err
}

func (s *visitStore) MaxQueueNumber(ctx context.Context, day time.Time) (int, error) {
	var max int
	err := s.db.WithContext(ctx).
		Model(&visit.Visit{}).
		Where("visit_day = ?", day.Format("2006-01-02")).
		Select("COALESCE(MAX(queue_number), 0)").
		Scan(&max).Error
	return max, err
}
