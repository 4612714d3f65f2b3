package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinikku/clinic-api/internal/domain/medication"
	"github.com/klinikku/clinic-api/internal/domain/visit"
)

type fakeMedications struct {
	rows []*medication.Medication
}

func (f *fakeMedications) Create(_ context.Context, m *medication.Medication) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now().Add(time.Duration(len(f.rows)) * time.Millisecond)
	f.rows = append(f.rows, m)
	return nil
}

func (f *fakeMedications) GetByID(_ context.Context, id uuid.UUID) (*medication.Medication, error) {
	for _, m := range f.rows {
		if m.ID == id && m.DeletedAt == nil {
			return m, nil
		}
	}
	return nil, medication.ErrMedicationNotFound
}

func (f *fakeMedications) Update(ctx context.Context, id uuid.UUID, cmd *medication.UpdateMedicationCommand) (*medication.Medication, error) {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		m.Name = *cmd.Name
	}
	if cmd.Quantity != nil {
		m.Quantity = *cmd.Quantity
	}
	if cmd.Instructions != nil {
		m.Instructions = *cmd.Instructions
	}
	return m, nil
}

func (f *fakeMedications) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	m.DeletedAt = &now
	return nil
}

func (f *fakeMedications) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*medication.Medication, error) {
	var out []*medication.Medication
	for _, m := range f.rows {
		if m.VisitID == visitID && m.DeletedAt == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func newMedicationTestService(env *testEnv) (*MedicationService, *fakeMedications) {
	repo := &fakeMedications{}
	return NewMedicationService(repo, env.store.Visits(), env.audit, env.log), repo
}

func TestAddMedication_AttachedToVisit(t *testing.T) {
	env := newTestEnv()
	svc, _ := newMedicationTestService(env)
	v := env.seedVisit()
	doctor := uuid.New()

	m, err := svc.AddMedication(context.Background(), &medication.CreateMedicationCommand{
		VisitID:      v.ID,
		Name:         "Amoxicillin 500mg",
		Quantity:     "15 tablets",
		Instructions: "3x daily after meals",
		PrescribedBy: doctor,
	}, doctor, "doctor", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, v.ID, m.VisitID)
	assert.Equal(t, v.PatientID, m.PatientID)
	assert.Equal(t, doctor, m.PrescribedBy)

	second, err := svc.AddMedication(context.Background(), &medication.CreateMedicationCommand{
		VisitID:      v.ID,
		Name:         "Paracetamol 500mg",
		Quantity:     "10 tablets",
		PrescribedBy: doctor,
	}, doctor, "doctor", "10.0.0.1")
	require.NoError(t, err)

	list, err := svc.ListByVisit(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, m.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestAddMedication_UnknownVisit(t *testing.T) {
	env := newTestEnv()
	svc, repo := newMedicationTestService(env)
	doctor := uuid.New()

	_, err := svc.AddMedication(context.Background(), &medication.CreateMedicationCommand{
		VisitID:      uuid.New(),
		Name:         "Ibuprofen 400mg",
		Quantity:     "10 tablets",
		PrescribedBy: doctor,
	}, doctor, "doctor", "10.0.0.1")
	assert.ErrorIs(t, err, visit.ErrVisitNotFound)
	assert.Empty(t, repo.rows)
}

func TestAddMedication_Validation(t *testing.T) {
	env := newTestEnv()
	svc, repo := newMedicationTestService(env)
	v := env.seedVisit()
	doctor := uuid.New()

	_, err := svc.AddMedication(context.Background(), &medication.CreateMedicationCommand{
		VisitID:      v.ID,
		PrescribedBy: doctor,
	}, doctor, "doctor", "10.0.0.1")

	var validErr *ValidationError
	require.ErrorAs(t, err, &validErr)
	assert.Len(t, validErr.Fields, 2)
	assert.Empty(t, repo.rows)
}

func TestUpdateMedication(t *testing.T) {
	env := newTestEnv()
	svc, _ := newMedicationTestService(env)
	v := env.seedVisit()
	doctor := uuid.New()

	m, err := svc.AddMedication(context.Background(), &medication.CreateMedicationCommand{
		VisitID:      v.ID,
		Name:         "Amoxicillin 500mg",
		Quantity:     "15 tablets",
		PrescribedBy: doctor,
	}, doctor, "doctor", "10.0.0.1")
	require.NoError(t, err)

	newQty := "21 tablets"
	updated, err := svc.UpdateMedication(context.Background(), m.ID, &medication.UpdateMedicationCommand{
		Quantity: &newQty,
	}, doctor, "doctor", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "21 tablets", updated.Quantity)
	assert.Equal(t, "Amoxicillin 500mg", updated.Name)

	empty := ""
	_, err = svc.UpdateMedication(context.Background(), m.ID, &medication.UpdateMedicationCommand{
		Name: &empty,
	}, doctor, "doctor", "10.0.0.1")
	var validErr *ValidationError
	assert.ErrorAs(t, err, &validErr)

	_, err = svc.UpdateMedication(context.Background(), uuid.New(), &medication.UpdateMedicationCommand{
		Quantity: &newQty,
	}, doctor, "doctor", "10.0.0.1")
	assert.ErrorIs(t, err, medication.ErrMedicationNotFound)
}

func TestDeleteMedication(t *testing.T) {
	env := newTestEnv()
	svc, _ := newMedicationTestService(env)
	v := env.seedVisit()
	doctor := uuid.New()

	m, err := svc.AddMedication(context.Background(), &medication.CreateMedicationCommand{
		VisitID:      v.ID,
		Name:         "Amoxicillin 500mg",
		Quantity:     "15 tablets",
		PrescribedBy: doctor,
	}, doctor, "doctor", "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMedication(context.Background(), m.ID, doctor, "doctor", "10.0.0.1"))

	list, err := svc.ListByVisit(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.DeleteMedication(context.Background(), m.ID, doctor, "doctor", "10.0.0.1")
	assert.ErrorIs(t, err, medication.ErrMedicationNotFound)
}
