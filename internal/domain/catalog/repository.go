package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateService(ctx context.Context, s *Service) error
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, cmd *UpdateServiceCommand) (*Service, error)
	ListServices(ctx context.Context, category *ServiceCategory, search string) ([]*Service, error)

	CreateProcedure(ctx context.Context, p *Procedure) error
	ListProcedures(ctx context.Context) ([]*Procedure, error)

	CreatePackage(ctx context.Context, p *Package) error
	GetPackageByID(ctx context.Context, id uuid.UUID) (*Package, error)
	ListPackages(ctx context.Context) ([]*Package, error)

	// LastServiceCode returns the highest code with the given prefix, or ""
	// when none exists. Same contract for procedures and package SKUs.
	LastServiceCode(ctx context.Context, prefix string) (string, error)
	LastProcedureCode(ctx context.Context, prefix string) (string, error)
	LastPackageSKU(ctx context.Context, prefix string) (string, error)
}
