package billing

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
	MethodQRIS     PaymentMethod = "qris"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodQRIS:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
)

// Payment records one settlement against a visit. A visit may carry several
// payments (installments); commissions for deferred roles materialize once
// the cumulative paid amount covers the visit total.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	VisitID       uuid.UUID     `gorm:"column:visit_id;type:uuid;not null;index"`
	PaymentNumber string        `gorm:"column:payment_number;type:varchar(20);uniqueIndex;not null"`
	PaymentDate   time.Time     `gorm:"column:payment_date;not null;index"`
	Method        PaymentMethod `gorm:"column:method;type:varchar(20);not null"`

	Amount float64 `gorm:"column:amount;type:numeric(12,2);not null"`
	// PaidAmount is the amount tendered; change_amount = paid_amount - amount
	// whenever the tender exceeds the billed amount.
	PaidAmount   float64       `gorm:"column:paid_amount;type:numeric(12,2);not null"`
	ChangeAmount float64       `gorm:"column:change_amount;type:numeric(12,2);not null;default:0"`
	Status       PaymentStatus `gorm:"column:status;type:varchar(20);not null"`

	ReferenceNumber string `gorm:"column:reference_number;type:varchar(100)"`
	Notes           string `gorm:"column:notes;type:text"`
}

func (Payment) TableName() string {
	return "billing.payments"
}

type CommissionStatus string

const (
	CommissionPending CommissionStatus = "pending"
	CommissionPaid    CommissionStatus = "paid"
	// CommissionVoided marks the entry of a deleted treatment. Voided rows
	// are kept for the audit trail and excluded from every payout query.
	CommissionVoided CommissionStatus = "voided"
)

// Commission is a staff payout entry derived from one treatment. At most one
// non-voided row exists per treatment (enforced by a partial unique index);
// BaseAmount must track the treatment's current subtotal.
type Commission struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	StaffID     uuid.UUID `gorm:"column:staff_id;type:uuid;not null;index"`
	TreatmentID uuid.UUID `gorm:"column:treatment_id;type:uuid;not null;index"`

	BaseAmount       float64 `gorm:"column:base_amount;type:numeric(12,2);not null"`
	CommissionRate   float64 `gorm:"column:commission_rate;type:numeric(5,2);not null"`
	CommissionAmount float64 `gorm:"column:commission_amount;type:numeric(12,2);not null"`

	// Stamped from the wall clock at creation time, not from the treatment
	// or visit date. Deliberate business rule: late settlements pay out in
	// the period they settle.
	PeriodMonth int `gorm:"column:period_month;not null;index"`
	PeriodYear  int `gorm:"column:period_year;not null;index"`

	Status CommissionStatus `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
}

func (Commission) TableName() string {
	return "billing.commissions"
}

// ComputeAmount applies the payout rule: base amount times rate percent.
func ComputeAmount(baseAmount, rate float64) float64 {
	return baseAmount * rate / 100
}

type RecordPaymentCommand struct {
	VisitID         uuid.UUID
	Method          PaymentMethod
	Amount          float64
	PaidAmount      float64
	ReferenceNumber string
	Notes           string
}

type ListCommissionsQuery struct {
	StaffID     *uuid.UUID
	PeriodMonth *int
	PeriodYear  *int
	Status      *CommissionStatus
}
