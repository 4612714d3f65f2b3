package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/klinikku/clinic-api/internal/domain/patient"
)

// Status transitions forward only:
//
//	waiting → in_progress → completed
//
// There is no cancellation state and no transition back toward waiting.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Visit is one clinic encounter. TotalCost is a running accumulator: it must
// equal the sum of subtotals over the visit's non-deleted treatments at all
// times, which is why every treatment mutation adjusts it in the same
// transaction.
type Visit struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	VisitNumber string    `gorm:"column:visit_number;type:varchar(30);uniqueIndex:ux_visits_visit_number;not null"`
	QueueNumber int       `gorm:"column:queue_number;not null;uniqueIndex:ux_visits_day_queue"`
	VisitDate   time.Time `gorm:"column:visit_date;not null;index"`
	// Calendar day of VisitDate; scopes the queue-number uniqueness constraint.
	VisitDay time.Time `gorm:"column:visit_day;type:date;not null;uniqueIndex:ux_visits_day_queue"`

	Status Status `gorm:"column:status;type:varchar(20);not null;default:'waiting';index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	// Staff member who opened the visit at intake.
	OpenedBy uuid.UUID `gorm:"column:opened_by;type:uuid;not null;index"`

	ChiefComplaint string `gorm:"column:chief_complaint;type:text"`
	BloodPressure  string `gorm:"column:blood_pressure;type:varchar(20)"`
	Notes          string `gorm:"column:notes;type:text"`

	TotalCost float64 `gorm:"column:total_cost;type:numeric(12,2);not null;default:0"`

	Patient *patient.Patient `gorm:"foreignKey:PatientID"`
}

func (Visit) TableName() string {
	return "clinical.visits"
}

// DayOf truncates t to midnight in t's own location. Every visit_day value
// must come through here: truncating in UTC instead would shift visits near
// midnight onto the wrong calendar day for non-UTC clinics.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (v *Visit) CanTransitionTo(next Status) bool {
	allowed := map[Status][]Status{
		StatusWaiting:    {StatusInProgress},
		StatusInProgress: {StatusCompleted},
		StatusCompleted:  {},
	}
	for _, s := range allowed[v.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// PatientRef identifies the patient for a new visit: either an existing ID or
// inline demographics for a walk-in.
type PatientRef struct {
	ID     *uuid.UUID
	Inline *patient.CreatePatientCommand
}

type CreateVisitCommand struct {
	Patient        PatientRef
	VisitDate      time.Time
	ChiefComplaint string
	BloodPressure  string
	Notes          string
	OpenedBy       uuid.UUID
}

type UpdateVisitCommand struct {
	VisitDate      *time.Time
	ChiefComplaint *string
	BloodPressure  *string
	Notes          *string
}

type ListVisitsQuery struct {
	Status   *Status
	Search   string
	Page     int
	PageSize int
}

type PagedVisits struct {
	Visits     []*Visit
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
