package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klinikku/clinic-api/internal/domain/catalog"
)

type catalogStore struct {
	db *gorm.DB
}

func (s *catalogStore) CreateService(ctx context.Context, svc *catalog.Service) error {
	return s.db.WithContext(ctx).Create(svc).Error
}

func (s *catalogStore) GetServiceByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var svc catalog.Service
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *catalogStore) UpdateService(ctx context.Context, id uuid.UUID, cmd *catalog.UpdateServiceCommand) (*catalog.Service, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Category != nil {
		updates["category"] = *cmd.Category
	}
	if cmd.BasePrice != nil {
		updates["base_price"] = *cmd.BasePrice
	}
	if cmd.CommissionRate != nil {
		updates["commission_rate"] = *cmd.CommissionRate
	}
	if cmd.Description != nil {
		updates["description"] = *cmd.Description
	}
	if cmd.IsActive != nil {
		updates["is_active"] = *cmd.IsActive
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).
			Model(&catalog.Service{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, catalog.ErrServiceNotFound
		}
	}

	return s.GetServiceByID(ctx, id)
}

func (s *catalogStore) ListServices(ctx context.Context, category *catalog.ServiceCategory, search string) ([]*catalog.Service, error) {
	query := s.db.WithContext(ctx).
		Model(&catalog.Service{}).
		Where("deleted_at IS NULL")

	if category != nil {
		query = query.Where("category = ?", *category)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", like, like)
	}

	var services []*catalog.Service
	err := query.Order("name ASC").Find(&services).Error
	return services, err
}

func (s *catalogStore) CreateProcedure(ctx context.Context, p *catalog.Procedure) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *catalogStore) ListProcedures(ctx context.Context) ([]*catalog.Procedure, error) {
	var procedures []*catalog.Procedure
	err := s.db.WithContext(ctx).Order("code ASC").Find(&procedures).Error
	return procedures, err
}

func (s *catalogStore) CreatePackage(ctx context.Context, p *catalog.Package) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *catalogStore) GetPackageByID(ctx context.Context, id uuid.UUID) (*catalog.Package, error) {
	var p catalog.Package
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrPackageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *catalogStore) ListPackages(ctx context.Context) ([]*catalog.Package, error) {
	var packages []*catalog.Package
	err := s.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("sku ASC").
		Find(&packages).Error
	return packages, err
}

func (s *catalogStore) LastServiceCode(ctx context.Context, prefix string) (string, error) {
	return s.lastCode(ctx, &catalog.Service{}, "code", prefix)
}

func (s *catalogStore) LastProcedureCode(ctx context.Context, prefix string) (string, error) {
	return s.lastCode(ctx, &catalog.Procedure{}, "code", prefix)
}

func (s *catalogStore) LastPackageSKU(ctx context.Context, prefix string) (string, error) {
	return s.lastCode(ctx, &catalog.Package{}, "sku", prefix)
}

func (s *catalogStore) lastCode(ctx context.Context, model any, column, prefix string) (string, error) {
	var codes []string
	err := s.db.WithContext(ctx).
		Model(model).
		Where(column+" LIKE ?", prefix+"%").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &codes).Error
	if err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], nil
}
