package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale:
		return true
	}
	return false
}

// Patient is the clinic's identity record. PatientNumber and
// MedicalRecordNumber are human-readable, globally unique, and sequential
// within a calendar month (P-YYYYMM-NNNN / RM-YYYYMM-NNNN). They are assigned
// by the sequence allocator, never by callers.
type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientNumber string `gorm:"column:patient_number;type:varchar(20);uniqueIndex;not null"`
	// Nullable: patients registered before the numbering scheme get one
	// assigned on their next visit.
	MedicalRecordNumber *string `gorm:"column:medical_record_number;type:varchar(20);uniqueIndex"`

	FullName    string    `gorm:"column:full_name;type:varchar(200);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Gender      Gender    `gorm:"column:gender;type:varchar(10);not null"`

	Phone   string `gorm:"column:phone;type:varchar(20);not null;index"`
	Email   string `gorm:"column:email;type:varchar(255)"`
	Address string `gorm:"column:address;type:text"`

	BloodType      string `gorm:"column:blood_type;type:varchar(5)"`
	Allergies      string `gorm:"column:allergies;type:text"`
	MedicalHistory string `gorm:"column:medical_history;type:text"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) Age() int {
	now := time.Now()
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

type CreatePatientCommand struct {
	FullName       string
	DateOfBirth    time.Time
	Gender         Gender
	Phone          string
	Email          string
	Address        string
	BloodType      string
	Allergies      string
	MedicalHistory string
}

func (c *CreatePatientCommand) Normalize() {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

type UpdatePatientCommand struct {
	FullName       *string
	Phone          *string
	Email          *string
	Address        *string
	BloodType      *string
	Allergies      *string
	MedicalHistory *string
}

type ListPatientsQuery struct {
	Search   string // matches full name, patient number, or medical record number
	Page     int
	PageSize int
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
