package catalog

import (
	"time"

	"github.com/google/uuid"
)

type ServiceCategory string

const (
	CategoryGeneral      ServiceCategory = "general"
	CategoryOrthodontics ServiceCategory = "orthodontics"
	CategorySurgery      ServiceCategory = "surgery"
	CategoryCosmetic     ServiceCategory = "cosmetic"
	CategoryPediatric    ServiceCategory = "pediatric"
)

func (c ServiceCategory) IsValid() bool {
	switch c {
	case CategoryGeneral, CategoryOrthodontics, CategorySurgery, CategoryCosmetic, CategoryPediatric:
		return true
	}
	return false
}

// Service is a billable catalog entry. BasePrice and CommissionRate are the
// values captured into each treatment at creation time; editing them here
// never touches historical treatments.
type Service struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Code     string          `gorm:"column:code;type:varchar(20);uniqueIndex;not null"`
	Name     string          `gorm:"column:name;type:varchar(200);not null"`
	Category ServiceCategory `gorm:"column:category;type:varchar(30);not null;index"`

	BasePrice      float64 `gorm:"column:base_price;type:numeric(12,2);not null"`
	CommissionRate float64 `gorm:"column:commission_rate;type:numeric(5,2);not null;default:0"`

	Description string `gorm:"column:description;type:text"`
	IsActive    bool   `gorm:"column:is_active;default:true;index"`
}

func (Service) TableName() string {
	return "catalog.services"
}

// Procedure is a clinical procedure definition referenced from treatment
// documentation. Codes follow the PRC- sequence.
type Procedure struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Code        string `gorm:"column:code;type:varchar(20);uniqueIndex;not null"`
	Name        string `gorm:"column:name;type:varchar(200);not null"`
	Description string `gorm:"column:description;type:text"`
}

func (Procedure) TableName() string {
	return "catalog.procedures"
}

// Package bundles several sessions of a service at a package price.
type Package struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	SKU           string    `gorm:"column:sku;type:varchar(20);uniqueIndex;not null"`
	Name          string    `gorm:"column:name;type:varchar(200);not null"`
	ServiceID     uuid.UUID `gorm:"column:service_id;type:uuid;not null;index"`
	SessionsCount int       `gorm:"column:sessions_count;not null"`
	Price         float64   `gorm:"column:price;type:numeric(12,2);not null"`
	Description   string    `gorm:"column:description;type:text"`
}

func (Package) TableName() string {
	return "catalog.packages"
}

type CreateServiceCommand struct {
	Name           string
	Category       ServiceCategory
	BasePrice      float64
	CommissionRate float64
	Description    string
}

type UpdateServiceCommand struct {
	Name           *string
	Category       *ServiceCategory
	BasePrice      *float64
	CommissionRate *float64
	Description    *string
	IsActive       *bool
}

type CreateProcedureCommand struct {
	Name        string
	Description string
}

type CreatePackageCommand struct {
	Name          string
	ServiceID     uuid.UUID
	SessionsCount int
	Price         float64
	Description   string
}
