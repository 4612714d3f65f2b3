package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/domain/medication"
	"github.com/klinikku/clinic-api/internal/domain/visit"
)

// MedicationService manages the dispensed-medication records attached to a
// visit. Medications are documentation only; anything billable for them is a
// treatment.
type MedicationService struct {
	repo     medication.Repository
	visits   visit.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewMedicationService(repo medication.Repository, visits visit.Repository, auditSvc *AuditService, log *zap.Logger) *MedicationService {
	return &MedicationService{repo: repo, visits: visits, auditSvc: auditSvc, log: log}
}

func (s *MedicationService) AddMedication(
	ctx context.Context,
	cmd *medication.CreateMedicationCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*medication.Medication, error) {
	var fields []string
	if cmd.Name == "" {
		fields = append(fields, "name: required")
	}
	if cmd.Quantity == "" {
		fields = append(fields, "quantity: required")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	v, err := s.visits.GetByID(ctx, cmd.VisitID)
	if err != nil {
		return nil, err
	}

	m := &medication.Medication{
		VisitID:      v.ID,
		PatientID:    v.PatientID,
		PrescribedBy: cmd.PrescribedBy,
		Name:         cmd.Name,
		Quantity:     cmd.Quantity,
		Instructions: cmd.Instructions,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		s.log.Error("medication creation failed", zap.Error(err))
		return nil, fmt.Errorf("creating medication: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "medication", ResourceID: m.ID.String(), IPAddress: ip,
	})
	return m, nil
}

func (s *MedicationService) UpdateMedication(
	ctx context.Context,
	id uuid.UUID,
	cmd *medication.UpdateMedicationCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*medication.Medication, error) {
	if cmd.Name != nil && *cmd.Name == "" {
		return nil, &ValidationError{Fields: []string{"name: must not be empty"}}
	}
	if cmd.Quantity != nil && *cmd.Quantity == "" {
		return nil, &ValidationError{Fields: []string{"quantity: must not be empty"}}
	}

	m, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "medication", ResourceID: id.String(), IPAddress: ip,
	})
	return m, nil
}

func (s *MedicationService) DeleteMedication(
	ctx context.Context,
	id uuid.UUID,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "delete", ResourceType: "medication", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *MedicationService) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*medication.Medication, error) {
	return s.repo.ListByVisit(ctx, visitID)
}
