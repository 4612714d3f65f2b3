package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinikku/clinic-api/internal/domain/patient"
)

func TestRegisterPatient_AllocatesSequentialNumbers(t *testing.T) {
	env := newTestEnv()
	svc := env.patientService()
	caller := uuid.New()

	first, err := svc.RegisterPatient(context.Background(), &patient.CreatePatientCommand{
		FullName:    "  Dewi Anggraini  ",
		DateOfBirth: time.Date(1985, 2, 10, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		Phone:       "081211112222",
		Email:       "Dewi@Example.COM",
	}, caller, "receptionist", "10.0.0.1")
	require.NoError(t, err)

	// Normalization trims the name and lowercases the email.
	assert.Equal(t, "Dewi Anggraini", first.FullName)
	assert.Equal(t, "dewi@example.com", first.Email)
	assert.Regexp(t, `-0001$`, first.PatientNumber)
	require.NotNil(t, first.MedicalRecordNumber)
	assert.Regexp(t, `-0001$`, *first.MedicalRecordNumber)

	second, err := svc.RegisterPatient(context.Background(), &patient.CreatePatientCommand{
		FullName:    "Rudi Hartono",
		DateOfBirth: time.Date(1978, 11, 3, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderMale,
		Phone:       "081233334444",
	}, caller, "receptionist", "10.0.0.1")
	require.NoError(t, err)
	assert.Regexp(t, `-0002$`, second.PatientNumber)
	require.NotNil(t, second.MedicalRecordNumber)
	assert.Regexp(t, `-0002$`, *second.MedicalRecordNumber)
}

func TestRegisterPatient_Validation(t *testing.T) {
	env := newTestEnv()
	svc := env.patientService()
	caller := uuid.New()

	_, err := svc.RegisterPatient(context.Background(), &patient.CreatePatientCommand{
		Gender: "other",
	}, caller, "receptionist", "10.0.0.1")

	var validErr *ValidationError
	require.ErrorAs(t, err, &validErr)
	assert.Contains(t, validErr.Error(), "full_name")
	assert.Contains(t, validErr.Error(), "phone")
	assert.Contains(t, validErr.Error(), "gender")
	assert.Empty(t, env.store.state.patients)
}

func TestUpdatePatient_PartialFields(t *testing.T) {
	env := newTestEnv()
	svc := env.patientService()
	caller := uuid.New()

	p := &patient.Patient{
		ID:            uuid.New(),
		PatientNumber: "P-202503-0001",
		FullName:      "Joko Widarto",
		Phone:         "081244445555",
		Gender:        patient.GenderMale,
		Allergies:     "penicillin",
	}
	env.store.state.patients[p.ID] = p

	newPhone := "081299990000"
	updated, err := svc.UpdatePatient(context.Background(), p.ID, &patient.UpdatePatientCommand{
		Phone: &newPhone,
	}, caller, "receptionist", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, newPhone, updated.Phone)
	assert.Equal(t, "Joko Widarto", updated.FullName)
	assert.Equal(t, "penicillin", updated.Allergies)

	_, err = svc.UpdatePatient(context.Background(), uuid.New(), &patient.UpdatePatientCommand{
		Phone: &newPhone,
	}, caller, "receptionist", "10.0.0.1")
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
}
