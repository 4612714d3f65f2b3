package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/sequence"
)

type PatientService struct {
	store    domain.Store
	seq      *sequence.Allocator
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPatientService(
	store domain.Store,
	seq *sequence.Allocator,
	auditSvc *AuditService,
	log *zap.Logger,
) *PatientService {
	return &PatientService{store: store, seq: seq, auditSvc: auditSvc, log: log}
}

// RegisterPatient creates a patient record with freshly allocated patient and
// medical record numbers. Callers never supply the numbers.
func (s *PatientService) RegisterPatient(
	ctx context.Context,
	cmd *patient.CreatePatientCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*patient.Patient, error) {
	cmd.Normalize()
	if fields := validateNewPatient(cmd); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

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
		s.log.Error("failed to register patient", zap.Error(err))
		return nil, fmt.Errorf("registering patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "patient", ResourceID: p.ID.String(), IPAddress: ip,
	})
	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.store.Patients().GetByID(ctx, id)
}

func (s *PatientService) UpdatePatient(
	ctx context.Context,
	id uuid.UUID,
	cmd *patient.UpdatePatientCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*patient.Patient, error) {
	p, err := s.store.Patients().Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
	})
	return p, nil
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return s.store.Patients().List(ctx, q)
}
