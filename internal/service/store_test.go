package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/domain/billing"
	"github.com/klinikku/clinic-api/internal/domain/catalog"
	"github.com/klinikku/clinic-api/internal/domain/patient"
	"github.com/klinikku/clinic-api/internal/domain/treatment"
	"github.com/klinikku/clinic-api/internal/domain/visit"
	"github.com/klinikku/clinic-api/internal/sequence"
	"github.com/klinikku/clinic-api/pkg/metrics"
)

// fakeState is an in-memory snapshot of every table the services touch.
type fakeState struct {
	patients    map[uuid.UUID]*patient.Patient
	visits      map[uuid.UUID]*visit.Visit
	treatments  map[uuid.UUID]*treatment.Treatment
	services    map[uuid.UUID]*catalog.Service
	procedures  map[uuid.UUID]*catalog.Procedure
	packages    map[uuid.UUID]*catalog.Package
	payments    map[uuid.UUID]*billing.Payment
	commissions map[uuid.UUID]*billing.Commission

	seq int
}

func newFakeState() *fakeState {
	return &fakeState{
		patients:    make(map[uuid.UUID]*patient.Patient),
		visits:      make(map[uuid.UUID]*visit.Visit),
		treatments:  make(map[uuid.UUID]*treatment.Treatment),
		services:    make(map[uuid.UUID]*catalog.Service),
		procedures:  make(map[uuid.UUID]*catalog.Procedure),
		packages:    make(map[uuid.UUID]*catalog.Package),
		payments:    make(map[uuid.UUID]*billing.Payment),
		commissions: make(map[uuid.UUID]*billing.Commission),
	}
}

func (s *fakeState) clone() *fakeState {
	c := newFakeState()
	c.seq = s.seq
	for id, v := range s.patients {
		cp := *v
		c.patients[id] = &cp
	}
	for id, v := range s.visits {
		cp := *v
		c.visits[id] = &cp
	}
	for id, v := range s.treatments {
		cp := *v
		c.treatments[id] = &cp
	}
	for id, v := range s.services {
		cp := *v
		c.services[id] = &cp
	}
	for id, v := range s.procedures {
		cp := *v
		c.procedures[id] = &cp
	}
	for id, v := range s.packages {
		cp := *v
		c.packages[id] = &cp
	}
	for id, v := range s.payments {
		cp := *v
		c.payments[id] = &cp
	}
	for id, v := range s.commissions {
		cp := *v
		c.commissions[id] = &cp
	}
	return c
}

// nextTick hands out strictly increasing timestamps so ordering by CreatedAt
// is deterministic.
func (s *fakeState) nextTick() time.Time {
	s.seq++
	return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

// failures lets a test force specific store operations to fail. Shared
// across transaction clones so injection survives InTx.
type failures struct {
	addToTotalCost   error
	createCommission error
	visitCreateErrs  []error
}

func (f *failures) popVisitCreateErr() error {
	if len(f.visitCreateErrs) == 0 {
		return nil
	}
	err := f.visitCreateErrs[0]
	f.visitCreateErrs = f.visitCreateErrs[1:]
	return err
}

// fakeStore implements domain.Store over fakeState. InTx runs the callback
// against a deep copy and commits it only on success, which is what lets the
// atomicity tests assert that nothing leaks out of a failed cascade.
type fakeStore struct {
	state *fakeState
	fail  *failures
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: newFakeState(), fail: &failures{}}
}

func (s *fakeStore) Patients() patient.Repository     { return &fakePatients{s} }
func (s *fakeStore) Visits() visit.Repository         { return &fakeVisits{s} }
func (s *fakeStore) Treatments() treatment.Repository { return &fakeTreatments{s} }
func (s *fakeStore) Catalog() catalog.Repository      { return &fakeCatalog{s} }
func (s *fakeStore) Billing() billing.Repository      { return &fakeBilling{s} }

func (s *fakeStore) InTx(ctx context.Context, fn func(domain.Store) error) error {
	tx := &fakeStore{state: s.state.clone(), fail: s.fail}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// ---- patients ----

type fakePatients struct{ s *fakeStore }

func (f *fakePatients) Create(_ context.Context, p *patient.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = f.s.state.nextTick()
	cp := *p
	f.s.state.patients[p.ID] = &cp
	return nil
}

func (f *fakePatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := f.s.state.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatients) GetByPhone(_ context.Context, phone string) (*patient.Patient, error) {
	var best *patient.Patient
	for _, p := range f.s.state.patients {
		if p.Phone != phone {
			continue
		}
		if best == nil || p.CreatedAt.Before(best.CreatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, patient.ErrPatientNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakePatients) Update(_ context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	p, ok := f.s.state.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	if cmd.FullName != nil {
		p.FullName = *cmd.FullName
	}
	if cmd.Phone != nil {
		p.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		p.Email = *cmd.Email
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.BloodType != nil {
		p.BloodType = *cmd.BloodType
	}
	if cmd.Allergies != nil {
		p.Allergies = *cmd.Allergies
	}
	if cmd.MedicalHistory != nil {
		p.MedicalHistory = *cmd.MedicalHistory
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatients) SetMedicalRecordNumber(_ context.Context, id uuid.UUID, mrn string) error {
	p, ok := f.s.state.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.MedicalRecordNumber = &mrn
	return nil
}

func (f *fakePatients) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	var out []*patient.Patient
	for _, p := range f.s.state.patients {
		cp := *p
		out = append(out, &cp)
	}
	return &patient.PagedPatients{Patients: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize, TotalPages: 1}, nil
}

func (f *fakePatients) LastPatientNumber(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, p := range f.s.state.patients {
		if strings.HasPrefix(p.PatientNumber, prefix) && p.PatientNumber > last {
			last = p.PatientNumber
		}
	}
	return last, nil
}

func (f *fakePatients) LastMedicalRecordNumber(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, p := range f.s.state.patients {
		if p.MedicalRecordNumber == nil {
			continue
		}
		if strings.HasPrefix(*p.MedicalRecordNumber, prefix) && *p.MedicalRecordNumber > last {
			last = *p.MedicalRecordNumber
		}
	}
	return last, nil
}

// ---- visits ----

type fakeVisits struct{ s *fakeStore }

func (f *fakeVisits) Create(_ context.Context, v *visit.Visit) error {
	if err := f.s.fail.popVisitCreateErr(); err != nil {
		return err
	}
	for _, existing := range f.s.state.visits {
		if existing.VisitNumber == v.VisitNumber {
			return visit.ErrDuplicateVisitNumber
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = f.s.state.nextTick()
	cp := *v
	f.s.state.visits[v.ID] = &cp
	return nil
}

func (f *fakeVisits) GetByID(_ context.Context, id uuid.UUID) (*visit.Visit, error) {
	v, ok := f.s.state.visits[id]
	if !ok {
		return nil, visit.ErrVisitNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVisits) GetForUpdate(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeVisits) GetByNumber(_ context.Context, number string) (*visit.Visit, error) {
	for _, v := range f.s.state.visits {
		if v.VisitNumber == number {
			cp := *v
			return &cp, nil
		}
	}
	return nil, visit.ErrVisitNotFound
}

func (f *fakeVisits) AddToTotalCost(_ context.Context, id uuid.UUID, delta float64) error {
	if f.s.fail.addToTotalCost != nil {
		return f.s.fail.addToTotalCost
	}
	v, ok := f.s.state.visits[id]
	if !ok {
		return visit.ErrVisitNotFound
	}
	v.TotalCost += delta
	return nil
}

func (f *fakeVisits) UpdateStatus(_ context.Context, id uuid.UUID, status visit.Status) error {
	v, ok := f.s.state.visits[id]
	if !ok {
		return visit.ErrVisitNotFound
	}
	v.Status = status
	return nil
}

func (f *fakeVisits) Update(_ context.Context, id uuid.UUID, cmd *visit.UpdateVisitCommand) (*visit.Visit, error) {
	v, ok := f.s.state.visits[id]
	if !ok {
		return nil, visit.ErrVisitNotFound
	}
	if cmd.VisitDate != nil {
		v.VisitDate = *cmd.VisitDate
	}
	if cmd.ChiefComplaint != nil {
		v.ChiefComplaint = *cmd.ChiefComplaint
	}
	if cmd.BloodPressure != nil {
		v.BloodPressure = *cmd.BloodPressure
	}
	if cmd.Notes != nil {
		v.Notes = *cmd.Notes
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVisits) List(_ context.Context, q *visit.ListVisitsQuery) (*visit.PagedVisits, error) {
	var out []*visit.Visit
	for _, v := range f.s.state.visits {
		if q.Status != nil && v.Status != *q.Status {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	return &visit.PagedVisits{Visits: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize, TotalPages: 1}, nil
}

func (f *fakeVisits) ListQueue(_ context.Context, day time.Time) ([]*visit.Visit, error) {
	var out []*visit.Visit
	for _, v := range f.s.state.visits {
		if !v.VisitDay.Equal(day) {
			continue
		}
		if v.Status != visit.StatusWaiting && v.Status != visit.StatusInProgress {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueueNumber < out[j].QueueNumber })
	return out, nil
}

func (f *fakeVisits) MaxQueueNumber(_ context.Context, day time.Time) (int, error) {
	max := 0
	for _, v := range f.s.state.visits {
		if v.VisitDay.Equal(day) && v.QueueNumber > max {
			max = v.QueueNumber
		}
	}
	return max, nil
}

// ---- treatments ----

type fakeTreatments struct{ s *fakeStore }

func (f *fakeTreatments) Create(_ context.Context, t *treatment.Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = f.s.state.nextTick()
	cp := *t
	f.s.state.treatments[t.ID] = &cp
	return nil
}

func (f *fakeTreatments) GetByID(_ context.Context, id uuid.UUID) (*treatment.Treatment, error) {
	t, ok := f.s.state.treatments[id]
	if !ok || t.DeletedAt != nil {
		return nil, treatment.ErrTreatmentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTreatments) Update(_ context.Context, t *treatment.Treatment) error {
	if _, ok := f.s.state.treatments[t.ID]; !ok {
		return treatment.ErrTreatmentNotFound
	}
	cp := *t
	f.s.state.treatments[t.ID] = &cp
	return nil
}

func (f *fakeTreatments) Delete(_ context.Context, id uuid.UUID) error {
	t, ok := f.s.state.treatments[id]
	if !ok {
		return treatment.ErrTreatmentNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	return nil
}

func (f *fakeTreatments) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*treatment.Treatment, error) {
	var out []*treatment.Treatment
	for _, t := range f.s.state.treatments {
		if t.VisitID != visitID || t.DeletedAt != nil {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTreatments) List(_ context.Context, q *treatment.ListTreatmentsQuery) (*treatment.PagedTreatments, error) {
	var out []*treatment.Treatment
	for _, t := range f.s.state.treatments {
		if t.DeletedAt != nil {
			continue
		}
		if q.PerformedBy != nil && t.PerformedBy != *q.PerformedBy {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return &treatment.PagedTreatments{Treatments: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize, TotalPages: 1}, nil
}

// ---- catalog ----

type fakeCatalog struct{ s *fakeStore }

func (f *fakeCatalog) CreateService(_ context.Context, svc *catalog.Service) error {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	cp := *svc
	f.s.state.services[svc.ID] = &cp
	return nil
}

func (f *fakeCatalog) GetServiceByID(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	svc, ok := f.s.state.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

func (f *fakeCatalog) UpdateService(_ context.Context, id uuid.UUID, cmd *catalog.UpdateServiceCommand) (*catalog.Service, error) {
	svc, ok := f.s.state.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	if cmd.Name != nil {
		svc.Name = *cmd.Name
	}
	if cmd.Category != nil {
		svc.Category = *cmd.Category
	}
	if cmd.BasePrice != nil {
		svc.BasePrice = *cmd.BasePrice
	}
	if cmd.CommissionRate != nil {
		svc.CommissionRate = *cmd.CommissionRate
	}
	if cmd.Description != nil {
		svc.Description = *cmd.Description
	}
	if cmd.IsActive != nil {
		svc.IsActive = *cmd.IsActive
	}
	cp := *svc
	return &cp, nil
}

func (f *fakeCatalog) ListServices(_ context.Context, category *catalog.ServiceCategory, _ string) ([]*catalog.Service, error) {
	var out []*catalog.Service
	for _, svc := range f.s.state.services {
		if category != nil && svc.Category != *category {
			continue
		}
		cp := *svc
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCatalog) CreateProcedure(_ context.Context, p *catalog.Procedure) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.s.state.procedures[p.ID] = &cp
	return nil
}

func (f *fakeCatalog) ListProcedures(_ context.Context) ([]*catalog.Procedure, error) {
	var out []*catalog.Procedure
	for _, p := range f.s.state.procedures {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCatalog) CreatePackage(_ context.Context, p *catalog.Package) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.s.state.packages[p.ID] = &cp
	return nil
}

func (f *fakeCatalog) GetPackageByID(_ context.Context, id uuid.UUID) (*catalog.Package, error) {
	p, ok := f.s.state.packages[id]
	if !ok {
		return nil, catalog.ErrPackageNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) ListPackages(_ context.Context) ([]*catalog.Package, error) {
	var out []*catalog.Package
	for _, p := range f.s.state.packages {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCatalog) LastServiceCode(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, svc := range f.s.state.services {
		if strings.HasPrefix(svc.Code, prefix) && svc.Code > last {
			last = svc.Code
		}
	}
	return last, nil
}

func (f *fakeCatalog) LastProcedureCode(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, p := range f.s.state.procedures {
		if strings.HasPrefix(p.Code, prefix) && p.Code > last {
			last = p.Code
		}
	}
	return last, nil
}

func (f *fakeCatalog) LastPackageSKU(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, p := range f.s.state.packages {
		if strings.HasPrefix(p.SKU, prefix) && p.SKU > last {
			last = p.SKU
		}
	}
	return last, nil
}

// ---- billing ----

type fakeBilling struct{ s *fakeStore }

func (f *fakeBilling) CreatePayment(_ context.Context, p *billing.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = f.s.state.nextTick()
	cp := *p
	f.s.state.payments[p.ID] = &cp
	return nil
}

func (f *fakeBilling) GetPaymentByID(_ context.Context, id uuid.UUID) (*billing.Payment, error) {
	p, ok := f.s.state.payments[id]
	if !ok {
		return nil, billing.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeBilling) ListPaymentsByVisit(_ context.Context, visitID uuid.UUID) ([]*billing.Payment, error) {
	var out []*billing.Payment
	for _, p := range f.s.state.payments {
		if p.VisitID != visitID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeBilling) SumPaidByVisit(_ context.Context, visitID uuid.UUID) (float64, error) {
	sum := 0.0
	for _, p := range f.s.state.payments {
		if p.VisitID == visitID {
			sum += math.Min(p.PaidAmount, p.Amount)
		}
	}
	return sum, nil
}

func (f *fakeBilling) LastPaymentNumber(_ context.Context) (string, error) {
	last := ""
	for _, p := range f.s.state.payments {
		if p.PaymentNumber > last {
			last = p.PaymentNumber
		}
	}
	return last, nil
}

func (f *fakeBilling) CreateCommission(_ context.Context, c *billing.Commission) error {
	if f.s.fail.createCommission != nil {
		return f.s.fail.createCommission
	}
	// Mirrors the partial unique index: one non-voided row per treatment.
	for _, existing := range f.s.state.commissions {
		if existing.TreatmentID == c.TreatmentID && existing.Status != billing.CommissionVoided {
			return fmt.Errorf("duplicate active commission for treatment %s", c.TreatmentID)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	f.s.state.commissions[c.ID] = &cp
	return nil
}

func (f *fakeBilling) GetActiveCommissionByTreatment(_ context.Context, treatmentID uuid.UUID) (*billing.Commission, error) {
	for _, c := range f.s.state.commissions {
		if c.TreatmentID == treatmentID && c.Status != billing.CommissionVoided {
			cp := *c
			return &cp, nil
		}
	}
	return nil, billing.ErrCommissionNotFound
}

func (f *fakeBilling) UpdateCommissionAmounts(_ context.Context, id uuid.UUID, baseAmount, commissionAmount float64) error {
	c, ok := f.s.state.commissions[id]
	if !ok {
		return billing.ErrCommissionNotFound
	}
	c.BaseAmount = baseAmount
	c.CommissionAmount = commissionAmount
	return nil
}

func (f *fakeBilling) VoidCommissionByTreatment(_ context.Context, treatmentID uuid.UUID) error {
	for _, c := range f.s.state.commissions {
		if c.TreatmentID == treatmentID && c.Status != billing.CommissionVoided {
			c.Status = billing.CommissionVoided
		}
	}
	return nil
}

func (f *fakeBilling) ListCommissions(_ context.Context, q *billing.ListCommissionsQuery) ([]*billing.Commission, error) {
	var out []*billing.Commission
	for _, c := range f.s.state.commissions {
		if q.StaffID != nil && c.StaffID != *q.StaffID {
			continue
		}
		if q.PeriodMonth != nil && c.PeriodMonth != *q.PeriodMonth {
			continue
		}
		if q.PeriodYear != nil && c.PeriodYear != *q.PeriodYear {
			continue
		}
		if q.Status != nil && c.Status != *q.Status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// ---- shared test plumbing ----

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(context.Context, *domain.AuditLog) error { return nil }

type testEnv struct {
	store *fakeStore
	seq   *sequence.Allocator
	audit *AuditService
	m     *metrics.Collector
	log   *zap.Logger
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	return &testEnv{
		store: store,
		seq:   sequence.New(&fakeVisits{store}, &fakePatients{store}, &fakeCatalog{store}, &fakeBilling{store}),
		audit: NewAuditService(fakeAuditRepo{}, zap.NewNop()),
		m:     metrics.NewCollectorWith(prometheus.NewRegistry(), "test"),
		log:   zap.NewNop(),
	}
}

func (e *testEnv) visitService() *VisitService {
	return NewVisitService(e.store, e.seq, e.audit, e.m, e.log)
}

func (e *testEnv) treatmentService() *TreatmentService {
	return NewTreatmentService(e.store, e.audit, e.m, e.log)
}

func (e *testEnv) paymentService() *PaymentService {
	return NewPaymentService(e.store, e.seq, e.audit, e.m, e.log)
}

func (e *testEnv) patientService() *PatientService {
	return NewPatientService(e.store, e.seq, e.audit, e.log)
}

func (e *testEnv) catalogService() *CatalogService {
	return NewCatalogService(e.store, e.seq, e.audit, e.log)
}

// seedService inserts a catalog entry and returns it.
func (e *testEnv) seedService(basePrice, commissionRate float64) *catalog.Service {
	svc := &catalog.Service{
		ID:             uuid.New(),
		Code:           fmt.Sprintf("SRV-%04d", len(e.store.state.services)+1),
		Name:           "Scaling",
		Category:       catalog.CategoryGeneral,
		BasePrice:      basePrice,
		CommissionRate: commissionRate,
		IsActive:       true,
	}
	e.store.state.services[svc.ID] = svc
	return svc
}

// seedVisit inserts a waiting visit with an existing patient and returns it.
func (e *testEnv) seedVisit() *visit.Visit {
	p := &patient.Patient{ID: uuid.New(), PatientNumber: "P-202503-0001", FullName: "Ayu Lestari", Phone: "081200001111", Gender: patient.GenderFemale}
	e.store.state.patients[p.ID] = p

	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	v := &visit.Visit{
		ID:          uuid.New(),
		VisitNumber: "V-20250314-1000001",
		QueueNumber: 1,
		VisitDate:   day.Add(9 * time.Hour),
		VisitDay:    day,
		Status:      visit.StatusWaiting,
		PatientID:   p.ID,
		OpenedBy:    uuid.New(),
	}
	e.store.state.visits[v.ID] = v
	return v
}

func (e *testEnv) activeCommissions(treatmentID uuid.UUID) []*billing.Commission {
	var out []*billing.Commission
	for _, c := range e.store.state.commissions {
		if c.TreatmentID == treatmentID && c.Status != billing.CommissionVoided {
			out = append(out, c)
		}
	}
	return out
}

var errBoom = errors.New("boom")
