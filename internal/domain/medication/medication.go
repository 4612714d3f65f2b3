// Package medication holds the dispensed-medication records attached to a
// visit. Medications carry no price and never touch the visit total; billing
// for dispensed drugs goes through the treatment cascade like any other
// charge.
package medication

import (
	"time"

	"github.com/google/uuid"
)

type Medication struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	VisitID uuid.UUID `gorm:"column:visit_id;type:uuid;not null;index"`
	// Denormalized from the visit so a patient's medication history reads
	// without joining through visits.
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	// Staff member who recorded the dispensation.
	PrescribedBy uuid.UUID `gorm:"column:prescribed_by;type:uuid;not null;index"`

	Name string `gorm:"column:name;type:varchar(255);not null"`
	// Free-form, e.g. "10 tablets" or "1 bottle".
	Quantity     string `gorm:"column:quantity;type:varchar(100);not null"`
	Instructions string `gorm:"column:instructions;type:text"`
}

func (Medication) TableName() string {
	return "clinical.medications"
}

type CreateMedicationCommand struct {
	VisitID      uuid.UUID
	Name         string
	Quantity     string
	Instructions string
	PrescribedBy uuid.UUID
}

type UpdateMedicationCommand struct {
	Name         *string
	Quantity     *string
	Instructions *string
}
