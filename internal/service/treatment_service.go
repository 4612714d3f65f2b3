package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/domain/billing"
	"github.com/klinikku/clinic-api/internal/domain/treatment"
	"github.com/klinikku/clinic-api/pkg/metrics"
)

// TreatmentService runs the treatment cascade: every create, update, and
// delete recomputes the line subtotal and applies the difference to the
// parent visit's running total and the treatment's commission entry, all
// inside one transaction. The visit row is locked first, so concurrent
// cascades on the same visit serialize instead of losing updates.
type TreatmentService struct {
	store    domain.Store
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger

	now func() time.Time
}

func NewTreatmentService(
	store domain.Store,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *TreatmentService {
	return &TreatmentService{store: store, auditSvc: auditSvc, metrics: m, log: log, now: time.Now}
}

// AddTreatment records a performed procedure. Pricing is captured from the
// catalog at this moment: the treatment keeps the unit price and commission
// rate it was created with even if the catalog changes later. For roles on
// the immediate commission policy, the commission entry is written in the
// same transaction; for deferred roles it waits for settlement.
func (s *TreatmentService) AddTreatment(
	ctx context.Context,
	cmd *treatment.CreateTreatmentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*treatment.Treatment, error) {
	if cmd.Quantity < 1 {
		return nil, treatment.ErrInvalidQuantity
	}

	var created *treatment.Treatment
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		v, err := tx.Visits().GetForUpdate(ctx, cmd.VisitID)
		if err != nil {
			return err
		}

		svc, err := tx.Catalog().GetServiceByID(ctx, cmd.ServiceID)
		if err != nil {
			return err
		}

		subtotal := treatment.ComputeSubtotal(svc.BasePrice, cmd.Quantity, cmd.Discount)
		if cmd.Discount < 0 || subtotal < 0 {
			return treatment.ErrInvalidDiscount
		}

		t := &treatment.Treatment{
			VisitID:        v.ID,
			PatientID:      v.PatientID,
			ServiceID:      svc.ID,
			PerformedBy:    callerID,
			ToothNumber:    cmd.ToothNumber,
			Diagnosis:      cmd.Diagnosis,
			Notes:          cmd.Notes,
			Quantity:       cmd.Quantity,
			UnitPrice:      svc.BasePrice,
			Discount:       cmd.Discount,
			Subtotal:       subtotal,
			CommissionRate: svc.CommissionRate,
		}
		if err := tx.Treatments().Create(ctx, t); err != nil {
			return fmt.Errorf("creating treatment: %w", err)
		}

		if err := tx.Visits().AddToTotalCost(ctx, v.ID, subtotal); err != nil {
			return fmt.Errorf("applying treatment to visit total: %w", err)
		}

		if domain.CommissionTimingFor(domain.Role(callerRole)) == domain.CommissionImmediate {
			if err := s.writeCommission(ctx, tx, t); err != nil {
				return err
			}
			s.metrics.CommissionsTotal.WithLabelValues("immediate").Inc()
		}

		created = t
		return nil
	})
	if err != nil {
		s.log.Error("treatment create cascade failed", zap.Error(err))
		return nil, err
	}

	s.metrics.TreatmentsTotal.WithLabelValues("create").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "treatment", ResourceID: created.ID.String(), IPAddress: ip,
	})
	return created, nil
}

// UpdateTreatment recomputes the subtotal from the changed quantity or
// discount against the unit price recorded at creation. The difference is
// applied to the visit total, and the active commission, if one exists yet,
// is re-synced to the new subtotal. Only the performing staff member may
// update a treatment.
func (s *TreatmentService) UpdateTreatment(
	ctx context.Context,
	id uuid.UUID,
	cmd *treatment.UpdateTreatmentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*treatment.Treatment, error) {
	var updated *treatment.Treatment
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		t, err := tx.Treatments().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t.PerformedBy != callerID {
			return treatment.ErrNotPerformer
		}

		// Lock the visit before touching anything money-related.
		if _, err := tx.Visits().GetForUpdate(ctx, t.VisitID); err != nil {
			return err
		}

		if cmd.ToothNumber != nil {
			t.ToothNumber = *cmd.ToothNumber
		}
		if cmd.Diagnosis != nil {
			t.Diagnosis = *cmd.Diagnosis
		}
		if cmd.Notes != nil {
			t.Notes = *cmd.Notes
		}
		if cmd.Quantity != nil {
			if *cmd.Quantity < 1 {
				return treatment.ErrInvalidQuantity
			}
			t.Quantity = *cmd.Quantity
		}
		if cmd.Discount != nil {
			t.Discount = *cmd.Discount
		}

		oldSubtotal := t.Subtotal
		newSubtotal := treatment.ComputeSubtotal(t.UnitPrice, t.Quantity, t.Discount)
		if t.Discount < 0 || newSubtotal < 0 {
			return treatment.ErrInvalidDiscount
		}
		t.Subtotal = newSubtotal

		if err := tx.Treatments().Update(ctx, t); err != nil {
			return fmt.Errorf("updating treatment: %w", err)
		}

		delta := newSubtotal - oldSubtotal
		if delta != 0 {
			if err := tx.Visits().AddToTotalCost(ctx, t.VisitID, delta); err != nil {
				return fmt.Errorf("applying delta to visit total: %w", err)
			}

			c, err := tx.Billing().GetActiveCommissionByTreatment(ctx, t.ID)
			switch {
			case err == nil:
				amount := billing.ComputeAmount(newSubtotal, c.CommissionRate)
				if err := tx.Billing().UpdateCommissionAmounts(ctx, c.ID, newSubtotal, amount); err != nil {
					return fmt.Errorf("re-syncing commission: %w", err)
				}
			case errors.Is(err, billing.ErrCommissionNotFound):
				// Deferred-path treatment not yet settled; nothing to sync.
			default:
				return fmt.Errorf("looking up commission: %w", err)
			}
		}

		updated = t
		return nil
	})
	if err != nil {
		if !errors.Is(err, treatment.ErrNotPerformer) && !errors.Is(err, treatment.ErrTreatmentNotFound) {
			s.log.Error("treatment update cascade failed", zap.Error(err))
		}
		return nil, err
	}

	s.metrics.TreatmentsTotal.WithLabelValues("update").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "treatment", ResourceID: id.String(), IPAddress: ip,
	})
	return updated, nil
}

// DeleteTreatment removes a treatment, subtracts its subtotal from the visit
// total, and voids its commission entry. The void keeps the payout ledger's
// history intact while excluding the row from every payout query. Performer
// restriction applies as with update.
func (s *TreatmentService) DeleteTreatment(
	ctx context.Context,
	id uuid.UUID,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) error {
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		t, err := tx.Treatments().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t.PerformedBy != callerID {
			return treatment.ErrNotPerformer
		}

		if _, err := tx.Visits().GetForUpdate(ctx, t.VisitID); err != nil {
			return err
		}

		if err := tx.Visits().AddToTotalCost(ctx, t.VisitID, -t.Subtotal); err != nil {
			return fmt.Errorf("removing treatment from visit total: %w", err)
		}
		if err := tx.Treatments().Delete(ctx, t.ID); err != nil {
			return fmt.Errorf("deleting treatment: %w", err)
		}
		if err := tx.Billing().VoidCommissionByTreatment(ctx, t.ID); err != nil {
			return fmt.Errorf("voiding commission: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, treatment.ErrNotPerformer) && !errors.Is(err, treatment.ErrTreatmentNotFound) {
			s.log.Error("treatment delete cascade failed", zap.Error(err))
		}
		return err
	}

	s.metrics.TreatmentsTotal.WithLabelValues("delete").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "delete", ResourceType: "treatment", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *TreatmentService) GetTreatment(ctx context.Context, id uuid.UUID) (*treatment.Treatment, error) {
	return s.store.Treatments().GetByID(ctx, id)
}

func (s *TreatmentService) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*treatment.Treatment, error) {
	return s.store.Treatments().ListByVisit(ctx, visitID)
}

func (s *TreatmentService) ListTreatments(ctx context.Context, q *treatment.ListTreatmentsQuery) (*treatment.PagedTreatments, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return s.store.Treatments().List(ctx, q)
}

// writeCommission inserts a commission entry for the treatment, stamped with
// the current period. Shared by the immediate path here and the settlement
// path in PaymentService.
func (s *TreatmentService) writeCommission(ctx context.Context, tx domain.Store, t *treatment.Treatment) error {
	now := s.now()
	c := &billing.Commission{
		StaffID:          t.PerformedBy,
		TreatmentID:      t.ID,
		BaseAmount:       t.Subtotal,
		CommissionRate:   t.CommissionRate,
		CommissionAmount: billing.ComputeAmount(t.Subtotal, t.CommissionRate),
		PeriodMonth:      int(now.Month()),
		PeriodYear:       now.Year(),
		Status:           billing.CommissionPending,
	}
	if err := tx.Billing().CreateCommission(ctx, c); err != nil {
		return fmt.Errorf("creating commission: %w", err)
	}
	return nil
}
