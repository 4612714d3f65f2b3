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
	"github.com/klinikku/clinic-api/internal/sequence"
	"github.com/klinikku/clinic-api/pkg/metrics"
)

// PaymentService records settlements against visits and runs the deferred
// commission path: once a visit's cumulative paid amount covers its total
// cost, every treatment on the visit that does not yet carry a commission
// gets one. Settlement is judged against the running sum, so a visit paid in
// installments finalizes on whichever payment crosses the line.
type PaymentService struct {
	store    domain.Store
	seq      *sequence.Allocator
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger

	now func() time.Time
}

func NewPaymentService(
	store domain.Store,
	seq *sequence.Allocator,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{store: store, seq: seq, auditSvc: auditSvc, metrics: m, log: log, now: time.Now}
}

func (s *PaymentService) RecordPayment(
	ctx context.Context,
	cmd *billing.RecordPaymentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*billing.Payment, error) {
	if !cmd.Method.IsValid() {
		return nil, billing.ErrInvalidPaymentMethod
	}
	if cmd.Amount <= 0 {
		return nil, billing.ErrInvalidAmount
	}
	if cmd.PaidAmount < 0 {
		return nil, billing.ErrInvalidPaidAmount
	}

	var (
		payment   *billing.Payment
		finalized int
	)
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		// The lock serializes concurrent payments on one visit; without it,
		// two installments could both observe a partial sum and neither
		// would materialize commissions.
		v, err := tx.Visits().GetForUpdate(ctx, cmd.VisitID)
		if err != nil {
			return err
		}

		number, err := s.seq.PaymentNumber(ctx)
		if err != nil {
			return err
		}

		// PaidAmount records what was tendered; the excess over the billed
		// amount goes back as change. Settlement only counts the tender up
		// to the billed amount, so overpaying one installment cannot settle
		// the rest of the visit.
		change := 0.0
		effective := cmd.PaidAmount
		if cmd.PaidAmount > cmd.Amount {
			change = cmd.PaidAmount - cmd.Amount
			effective = cmd.Amount
		}

		alreadyPaid, err := tx.Billing().SumPaidByVisit(ctx, v.ID)
		if err != nil {
			return fmt.Errorf("summing prior payments: %w", err)
		}

		status := billing.PaymentPartial
		if alreadyPaid+effective >= v.TotalCost {
			status = billing.PaymentPaid
		}

		p := &billing.Payment{
			VisitID:         v.ID,
			PaymentNumber:   number,
			PaymentDate:     s.now(),
			Method:          cmd.Method,
			Amount:          cmd.Amount,
			PaidAmount:      cmd.PaidAmount,
			ChangeAmount:    change,
			Status:          status,
			ReferenceNumber: cmd.ReferenceNumber,
			Notes:           cmd.Notes,
		}
		if err := tx.Billing().CreatePayment(ctx, p); err != nil {
			return fmt.Errorf("creating payment: %w", err)
		}

		if status == billing.PaymentPaid {
			finalized, err = s.materializeCommissions(ctx, tx, v.ID)
			if err != nil {
				return err
			}
		}

		payment = p
		return nil
	})
	if err != nil {
		s.log.Error("payment recording failed", zap.Error(err))
		return nil, err
	}

	s.metrics.PaymentsTotal.WithLabelValues(string(payment.Status)).Inc()
	if finalized > 0 {
		s.log.Info("settlement commissions materialized",
			zap.String("visit_id", cmd.VisitID.String()),
			zap.Int("count", finalized),
		)
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "payment", ResourceID: payment.ID.String(), IPAddress: ip,
	})
	return payment, nil
}

// materializeCommissions writes a commission for every treatment on the
// visit that has no active one yet. The existence check makes the pass
// idempotent: a second qualifying payment or a re-trigger finds every
// treatment already covered and writes nothing.
func (s *PaymentService) materializeCommissions(ctx context.Context, tx domain.Store, visitID uuid.UUID) (int, error) {
	treatments, err := tx.Treatments().ListByVisit(ctx, visitID)
	if err != nil {
		return 0, fmt.Errorf("listing visit treatments: %w", err)
	}

	now := s.now()
	created := 0
	for _, t := range treatments {
		_, err := tx.Billing().GetActiveCommissionByTreatment(ctx, t.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, billing.ErrCommissionNotFound) {
			return created, fmt.Errorf("checking commission for treatment %s: %w", t.ID, err)
		}

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
			return created, fmt.Errorf("materializing commission for treatment %s: %w", t.ID, err)
		}
		s.metrics.CommissionsTotal.WithLabelValues("settlement").Inc()
		created++
	}
	return created, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	return s.store.Billing().GetPaymentByID(ctx, id)
}

func (s *PaymentService) ListPaymentsByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.Payment, error) {
	return s.store.Billing().ListPaymentsByVisit(ctx, visitID)
}

func (s *PaymentService) ListCommissions(ctx context.Context, q *billing.ListCommissionsQuery) ([]*billing.Commission, error) {
	return s.store.Billing().ListCommissions(ctx, q)
}
