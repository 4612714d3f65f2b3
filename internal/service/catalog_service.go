package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/domain/catalog"
	"github.com/klinikku/clinic-api/internal/sequence"
)

// CatalogService manages the billable catalog. Codes and SKUs come from the
// sequence allocator; price and rate edits affect future treatments only,
// since every treatment captures its pricing at creation.
type CatalogService struct {
	store    domain.Store
	seq      *sequence.Allocator
	auditSvc *AuditService
	log      *zap.Logger
}

func NewCatalogService(
	store domain.Store,
	seq *sequence.Allocator,
	auditSvc *AuditService,
	log *zap.Logger,
) *CatalogService {
	return &CatalogService{store: store, seq: seq, auditSvc: auditSvc, log: log}
}

func (s *CatalogService) CreateService(
	ctx context.Context,
	cmd *catalog.CreateServiceCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*catalog.Service, error) {
	var fields []string
	if cmd.Name == "" {
		fields = append(fields, "name: required")
	}
	if !cmd.Category.IsValid() {
		fields = append(fields, "category: invalid")
	}
	if cmd.BasePrice < 0 {
		fields = append(fields, "base_price: cannot be negative")
	}
	if cmd.CommissionRate < 0 || cmd.CommissionRate > 100 {
		fields = append(fields, "commission_rate: must be between 0 and 100")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	code, err := s.seq.ServiceCode(ctx)
	if err != nil {
		return nil, err
	}

	svc := &catalog.Service{
		Code:           code,
		Name:           cmd.Name,
		Category:       cmd.Category,
		BasePrice:      cmd.BasePrice,
		CommissionRate: cmd.CommissionRate,
		Description:    cmd.Description,
		IsActive:       true,
	}
	if err := s.store.Catalog().CreateService(ctx, svc); err != nil {
		s.log.Error("failed to create catalog service", zap.Error(err))
		return nil, fmt.Errorf("creating service: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "service", ResourceID: svc.ID.String(), IPAddress: ip,
	})
	return svc, nil
}

func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	return s.store.Catalog().GetServiceByID(ctx, id)
}

func (s *CatalogService) UpdateService(
	ctx context.Context,
	id uuid.UUID,
	cmd *catalog.UpdateServiceCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*catalog.Service, error) {
	if cmd.CommissionRate != nil && (*cmd.CommissionRate < 0 || *cmd.CommissionRate > 100) {
		return nil, &ValidationError{Fields: []string{"commission_rate: must be between 0 and 100"}}
	}
	if cmd.BasePrice != nil && *cmd.BasePrice < 0 {
		return nil, &ValidationError{Fields: []string{"base_price: cannot be negative"}}
	}

	svc, err := s.store.Catalog().UpdateService(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "service", ResourceID: id.String(), IPAddress: ip,
	})
	return svc, nil
}

func (s *CatalogService) ListServices(ctx context.Context, category *catalog.ServiceCategory, search string) ([]*catalog.Service, error) {
	return s.store.Catalog().ListServices(ctx, category, search)
}

func (s *CatalogService) CreateProcedure(
	ctx context.Context,
	cmd *catalog.CreateProcedureCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*catalog.Procedure, error) {
	if cmd.Name == "" {
		return nil, &ValidationError{Fields: []string{"name: required"}}
	}

	code, err := s.seq.ProcedureCode(ctx)
	if err != nil {
		return nil, err
	}

	p := &catalog.Procedure{
		Code:        code,
		Name:        cmd.Name,
		Description: cmd.Description,
	}
	if err := s.store.Catalog().CreateProcedure(ctx, p); err != nil {
		s.log.Error("failed to create procedure", zap.Error(err))
		return nil, fmt.Errorf("creating procedure: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "procedure", ResourceID: p.ID.String(), IPAddress: ip,
	})
	return p, nil
}

func (s *CatalogService) ListProcedures(ctx context.Context) ([]*catalog.Procedure, error) {
	return s.store.Catalog().ListProcedures(ctx)
}

func (s *CatalogService) CreatePackage(
	ctx context.Context,
	cmd *catalog.CreatePackageCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*catalog.Package, error) {
	var fields []string
	if cmd.Name == "" {
		fields = append(fields, "name: required")
	}
	if cmd.SessionsCount < 1 {
		fields = append(fields, "sessions_count: must be at least 1")
	}
	if cmd.Price < 0 {
		fields = append(fields, "price: cannot be negative")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// The referenced service must exist before a bundle is built on it.
	if _, err := s.store.Catalog().GetServiceByID(ctx, cmd.ServiceID); err != nil {
		return nil, err
	}

	sku, err := s.seq.PackageSKU(ctx)
	if err != nil {
		return nil, err
	}

	p := &catalog.Package{
		SKU:           sku,
		Name:          cmd.Name,
		ServiceID:     cmd.ServiceID,
		SessionsCount: cmd.SessionsCount,
		Price:         cmd.Price,
		Description:   cmd.Description,
	}
	if err := s.store.Catalog().CreatePackage(ctx, p); err != nil {
		s.log.Error("failed to create package", zap.Error(err))
		return nil, fmt.Errorf("creating package: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "package", ResourceID: p.ID.String(), IPAddress: ip,
	})
	return p, nil
}

func (s *CatalogService) ListPackages(ctx context.Context) ([]*catalog.Package, error) {
	return s.store.Catalog().ListPackages(ctx)
}
