package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/domain/visit"
	"github.com/klinikku/clinic-api/internal/sequence"
	"github.com/klinikku/clinic-api/pkg/metrics"
)

// maxVisitNumberAttempts bounds the generate-and-retry loop. Five attempts
// against a ~9000-value random space makes exhaustion a sign of a systemic
// problem (clock stuck, constraint misconfigured), not bad luck, so the
// error is surfaced rather than retried further.
const maxVisitNumberAttempts = 5

type VisitService struct {
	store    domain.Store
	seq      *sequence.Allocator
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewVisitService(
	store domain.Store,
	seq *sequence.Allocator,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *VisitService {
	return &VisitService{store: store, seq: seq, auditSvc: auditSvc, metrics: m, log: log}
}

// OpenVisit registers a patient encounter: it resolves the patient (existing
// ID, walk-in matched by phone, or a brand new record), assigns the day's
// next queue number, and creates the visit under a collision-retried visit
// number. New and legacy patients leave this call with a medical record
// number assigned.
func (s *VisitService) OpenVisit(
	ctx context.Context,
	cmd *visit.CreateVisitCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*visit.Visit, error) {
	if err := validateCreateVisit(cmd); err != nil {
		return nil, err
	}

	p, err := s.resolvePatient(ctx, cmd.Patient)
	if err != nil {
		return nil, err
	}

	visitDate := cmd.VisitDate
	if visitDate.IsZero() {
		visitDate = time.Now()
	}
	day := visit.DayOf(visitDate)

	queueNo, err := s.seq.QueueNumber(ctx, day)
	if err != nil {
		return nil, err
	}

	v := &visit.Visit{
		QueueNumber:    queueNo,
		VisitDate:      visitDate,
		VisitDay:       day,
		Status:         visit.StatusWaiting,
		PatientID:      p.ID,
		OpenedBy:       cmd.OpenedBy,
		ChiefComplaint: cmd.ChiefComplaint,
		BloodPressure:  cmd.BloodPressure,
		Notes:          cmd.Notes,
	}

	for attempt := 1; ; attempt++ {
		v.VisitNumber = s.seq.VisitNumber()
		err = s.store.Visits().Create(ctx, v)
		if err == nil {
			break
		}
		if !errors.Is(err, visit.ErrDuplicateVisitNumber) {
			s.log.Error("failed to create visit", zap.Error(err))
			return nil, fmt.Errorf("creating visit: %w", err)
		}
		s.metrics.VisitNumberRetries.Inc()
		s.log.Warn("visit number collision, regenerating",
			zap.String("visit_number", v.VisitNumber),
			zap.Int("attempt", attempt),
		)
		if attempt >= maxVisitNumberAttempts {
			s.metrics.VisitNumberExhausted.Inc()
			s.log.Error("visit number space exhausted",
				zap.Int("attempts", maxVisitNumberAttempts),
			)
			return nil, visit.ErrVisitNumberExhausted
		}
	}

	s.metrics.VisitsCreatedTotal.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "visit", ResourceID: v.ID.String(), IPAddress: ip,
	})

	v.Patient = p
	return v, nil
}

// resolvePatient turns a PatientRef into a concrete patient row. Walk-ins are
// matched by phone before a new record is cut; patients from before the
// numbering scheme get their medical record number backfilled here, on their
// next contact with the clinic.
func (s *VisitService) resolvePatient(ctx context.Context, ref visit.PatientRef) (*patient.Patient, error) {
	if ref.ID != nil {
		p, err := s.store.Patients().GetByID(ctx, *ref.ID)
		if err != nil {
			return nil, err
		}
		return s.ensureRecordNumber(ctx, p)
	}

	if ref.Inline == nil {
		return nil, &ValidationError{Fields: []string{"patient: id or inline demographics required"}}
	}

	inline := ref.Inline
	inline.Normalize()
	if fields := validateNewPatient(inline); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	existing, err := s.store.Patients().GetByPhone(ctx, inline.Phone)
	if err == nil {
		return s.ensureRecordNumber(ctx, existing)
	}
	if !errors.Is(err, patient.ErrPatientNotFound) {
		return nil, fmt.Errorf("matching walk-in by phone: %w", err)
	}

	return s.registerPatient(ctx, inline)
}

func (s *VisitService) registerPatient(ctx context.Context, cmd *patient.CreatePatientCommand) (*patient.Patient, error) {
	number, err := s.seq.PatientNumber(ctx)
	if err != nil {
		return nil, err
	}
	mrn, err := s.seq.MedicalRecordNumber(ctx)
	if err != nil {
		return nil, err
	}

	p := &patient.Patient{
		PatientNumber:       number,
		MedicalRecordNumber: &mrn,
		FullName:            cmd.FullName,
		DateOfBirth:         cmd.DateOfBirth,
		Gender:              cmd.Gender,
		Phone:               cmd.Phone,
		Email:               cmd.Email,
		Address:             cmd.Address,
		BloodType:           cmd.BloodType,
		Allergies:           cmd.Allergies,
		MedicalHistory:      cmd.MedicalHistory,
	}
	if err := s.store.Patients().Create(ctx, p); err != nil {
		s.log.Error("failed to register walk-in patient", zap.Error(err))
		return nil, fmt.Errorf("registering patient: %w", err)
	}
	return p, nil
}

func (s *VisitService) ensureRecordNumber(ctx context.Context, p *patient.Patient) (*patient.Patient, error) {
	if p.MedicalRecordNumber != nil {
		return p, nil
	}
	mrn, err := s.seq.MedicalRecordNumber(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Patients().SetMedicalRecordNumber(ctx, p.ID, mrn); err != nil {
		return nil, fmt.Errorf("backfilling medical record number: %w", err)
	}
	p.MedicalRecordNumber = &mrn
	return p, nil
}

func (s *VisitService) GetVisit(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	return s.store.Visits().GetByID(ctx, id)
}

func (s *VisitService) GetVisitByNumber(ctx context.Context, number string) (*visit.Visit, error) {
	return s.store.Visits().GetByNumber(ctx, number)
}

func (s *VisitService) ListVisits(ctx context.Context, q *visit.ListVisitsQuery) (*visit.PagedVisits, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return s.store.Visits().List(ctx, q)
}

// TodayQueue returns the waiting and in-progress visits for the given day in
// queue order, the front desk's live view.
func (s *VisitService) TodayQueue(ctx context.Context, day time.Time) ([]*visit.Visit, error) {
	return s.store.Visits().ListQueue(ctx, visit.DayOf(day))
}

// TransitionStatus moves a visit one step forward in its lifecycle. Only
// waiting→in_progress and in_progress→completed are valid; everything else,
// including any backward move, is rejected.
func (s *VisitService) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	next visit.Status,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*visit.Visit, error) {
	if !next.IsValid() {
		return nil, visit.ErrInvalidStatus
	}

	v, err := s.store.Visits().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", visit.ErrInvalidStatusTransition, v.Status, next)
	}

	if err := s.store.Visits().UpdateStatus(ctx, id, next); err != nil {
		s.log.Error("failed to update visit status", zap.Error(err))
		return nil, fmt.Errorf("updating visit status: %w", err)
	}
	v.Status = next

	s.metrics.VisitStatusTotal.WithLabelValues(string(next)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "visit", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":%q}`, next),
	})

	return v, nil
}

func (s *VisitService) UpdateVisit(
	ctx context.Context,
	id uuid.UUID,
	cmd *visit.UpdateVisitCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*visit.Visit, error) {
	v, err := s.store.Visits().Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "visit", ResourceID: id.String(), IPAddress: ip,
	})
	return v, nil
}

func validateCreateVisit(cmd *visit.CreateVisitCommand) error {
	var fields []string
	if cmd.Patient.ID == nil && cmd.Patient.Inline == nil {
		fields = append(fields, "patient: id or inline demographics required")
	}
	if cmd.Patient.ID != nil && cmd.Patient.Inline != nil {
		fields = append(fields, "patient: id and inline demographics are mutually exclusive")
	}
	if cmd.OpenedBy == uuid.Nil {
		fields = append(fields, "opened_by: required")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateNewPatient(cmd *patient.CreatePatientCommand) []string {
	var fields []string
	if cmd.FullName == "" {
		fields = append(fields, "full_name: required")
	}
	if cmd.Phone == "" {
		fields = append(fields, "phone: required")
	}
	if cmd.DateOfBirth.IsZero() {
		fields = append(fields, "date_of_birth: required")
	}
	if !cmd.Gender.IsValid() {
		fields = append(fields, "gender: must be male or female")
	}
	return fields
}
