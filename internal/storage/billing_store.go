package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klinikku/clinic-api/internal/domain/billing"
)

type billingStore struct {
	db *gorm.DB
}

func (s *billingStore) CreatePayment(ctx context.Context, p *billing.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *billingStore) GetPaymentByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var p billing.Payment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *billingStore) ListPaymentsByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.Payment, error) {
	var payments []*billing.Payment
	err := s.db.WithContext(ctx).
		Where("visit_id = ?", visitID).
		Order("payment_date DESC").
		Find(&payments).Error
	return payments, err
}

func (s *billingStore) SumPaidByVisit(ctx context.Context, visitID uuid.UUID) (float64, error) {
	var sum float64
	err := s.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where("visit_id = ?", visitID).
		Select("COALESCE(SUM(LEAST(paid_amount, amount)), 0)").
		Scan(&sum).Error
	return sum, err
}

func (s *billingStore) LastPaymentNumber(ctx context.Context) (string, error) {
	var numbers []string
	err := s.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Order("created_at DESC").
		Limit(1).
		Pluck("payment_number", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (s *billingStore) CreateCommission(ctx context.Context, c *billing.Commission) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *billingStore) GetActiveCommissionByTreatment(ctx context.Context, treatmentID uuid.UUID) (*billing.Commission, error) {
	var c billing.Commission
	err := s.db.WithContext(ctx).
		Where("treatment_id = ? AND status <> ?", treatmentID, billing.CommissionVoided).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrCommissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *billingStore) UpdateCommissionAmounts(ctx context.Context, id uuid.UUID, baseAmount, commissionAmount float64) error {
	res := s.db.WithContext(ctx).
		Model(&billing.Commission{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"base_amount":       baseAmount,
			"commission_amount": commissionAmount,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return billing.ErrCommissionNotFound
	}
	return nil
}

func (s *billingStore) VoidCommissionByTreatment(ctx context.Context, treatmentID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&billing.Commission{}).
		Where("treatment_id = ? AND status <> ?", treatmentID, billing.CommissionVoided).
		Update("status", billing.CommissionVoided).Error
}

func (s *billingStore) ListCommissions(ctx context.Context, q *billing.ListCommissionsQuery) ([]*billing.Commission, error) {
	query := s.db.WithContext(ctx).Model(&billing.Commission{})

	if q.StaffID != nil {
		query = query.Where("staff_id = ?", *q.StaffID)
	}
	if q.PeriodMonth != nil {
		query = query.Where("period_month = ?", *q.PeriodMonth)
	}
	if q.PeriodYear != nil {
		query = query.Where("period_year = ?", *q.PeriodYear)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var commissions []*billing.Commission
	err := query.Order("created_at DESC").Find(&commissions).Error
	return commissions, err
}
