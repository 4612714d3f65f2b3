package treatment

import (
	"time"

	"github.com/google/uuid"
)

// Treatment is one billable procedure performed during a visit. UnitPrice and
// CommissionRate are captured from the catalog service at creation time, so a
// later catalog change never retroactively alters a historical treatment.
type Treatment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	VisitID   uuid.UUID `gorm:"column:visit_id;type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	ServiceID uuid.UUID `gorm:"column:service_id;type:uuid;not null;index"`
	// Staff member who performed the procedure; the only actor allowed to
	// update or delete this row.
	PerformedBy uuid.UUID `gorm:"column:performed_by;type:uuid;not null;index"`

	ToothNumber string `gorm:"column:tooth_number;type:varchar(10)"`
	Diagnosis   string `gorm:"column:diagnosis;type:text"`
	Notes       string `gorm:"column:notes;type:text"`

	Quantity       int     `gorm:"column:quantity;not null;default:1"`
	UnitPrice      float64 `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Discount       float64 `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Subtotal       float64 `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CommissionRate float64 `gorm:"column:commission_rate;type:numeric(5,2);not null"`
}

func (Treatment) TableName() string {
	return "clinical.treatments"
}

// ComputeSubtotal applies the pricing rule shared by create and update:
// unit price times quantity, minus an absolute discount.
func ComputeSubtotal(unitPrice float64, quantity int, discount float64) float64 {
	return unitPrice*float64(quantity) - discount
}

type CreateTreatmentCommand struct {
	VisitID     uuid.UUID
	ServiceID   uuid.UUID
	ToothNumber string
	Diagnosis   string
	Notes       string
	Quantity    int
	Discount    float64
}

type UpdateTreatmentCommand struct {
	ToothNumber *string
	Diagnosis   *string
	Notes       *string
	Quantity    *int
	Discount    *float64
}

type ListTreatmentsQuery struct {
	PerformedBy *uuid.UUID
	PatientID   *uuid.UUID
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	PageSize    int
}

type PagedTreatments struct {
	Treatments []*Treatment
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
