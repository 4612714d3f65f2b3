// Package sequence produces the human-readable identifiers used across the
// clinic: daily queue numbers, monthly patient and medical-record numbers,
// visit numbers, catalog codes, and payment numbers.
//
// Two strategies coexist. Scan-and-increment reads the current maximum for a
// scope and adds one; it keeps identifiers perfectly sequential but carries a
// read-then-write race, so it is reserved for low-rate, human-facing
// sequences allocated behind a front desk. Visit numbers instead use
// generate-and-retry: a random candidate is written under the store's unique
// constraint, and the caller regenerates on conflict. Uniqueness there is
// enforced by the constraint, not by this package.
package sequence

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const (
	patientNumberPrefix = "P"
	recordNumberPrefix  = "RM"
	visitNumberPrefix   = "V"
	serviceCodePrefix   = "SRV"
	procedureCodePrefix = "PRC"
	packageSKUPrefix    = "PKG"
	paymentNumberPrefix = "PAY"

	firstPaymentNumber = 1000
)

// QueueScanner is the slice of the visit repository the allocator needs.
type QueueScanner interface {
	MaxQueueNumber(ctx context.Context, day time.Time) (int, error)
}

// PatientNumberScanner supplies the last allocated patient-side numbers.
type PatientNumberScanner interface {
	LastPatientNumber(ctx context.Context, prefix string) (string, error)
	LastMedicalRecordNumber(ctx context.Context, prefix string) (string, error)
}

// CodeScanner supplies the last allocated catalog codes.
type CodeScanner interface {
	LastServiceCode(ctx context.Context, prefix string) (string, error)
	LastProcedureCode(ctx context.Context, prefix string) (string, error)
	LastPackageSKU(ctx context.Context, prefix string) (string, error)
}

// PaymentNumberScanner supplies the last issued payment number.
type PaymentNumberScanner interface {
	LastPaymentNumber(ctx context.Context) (string, error)
}

type Allocator struct {
	visits   QueueScanner
	patients PatientNumberScanner
	catalog  CodeScanner
	billing  PaymentNumberScanner

	now  func() time.Time
	intn func(n int) int
}

func New(visits QueueScanner, patients PatientNumberScanner, catalog CodeScanner, billing PaymentNumberScanner) *Allocator {
	return &Allocator{
		visits:   visits,
		patients: patients,
		catalog:  catalog,
		billing:  billing,
		now:      time.Now,
		intn:     rand.Intn,
	}
}

// QueueNumber returns the next queue position for the given calendar day.
// Scan-and-increment: two racing calls can observe the same maximum. Queue
// numbers are assigned one at a time at intake, which keeps the window
// harmless in practice.
func (a *Allocator) QueueNumber(ctx context.Context, day time.Time) (int, error) {
	max, err := a.visits.MaxQueueNumber(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("scanning queue numbers: %w", err)
	}
	return max + 1, nil
}

// PatientNumber returns the next P-YYYYMM-NNNN number, sequential within the
// current calendar month.
func (a *Allocator) PatientNumber(ctx context.Context) (string, error) {
	prefix := monthPrefix(patientNumberPrefix, a.now())
	last, err := a.patients.LastPatientNumber(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("scanning patient numbers: %w", err)
	}
	return nextInSequence(prefix, last), nil
}

// MedicalRecordNumber returns the next RM-YYYYMM-NNNN number.
func (a *Allocator) MedicalRecordNumber(ctx context.Context) (string, error) {
	prefix := monthPrefix(recordNumberPrefix, a.now())
	last, err := a.patients.LastMedicalRecordNumber(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("scanning medical record numbers: %w", err)
	}
	return nextInSequence(prefix, last), nil
}

// VisitNumber builds a candidate visit number: V-YYYYMMDD-RRRRMMM, a random
// four-digit value concatenated with the current millisecond component. The
// caller writes it under the visit_number unique constraint and regenerates
// on conflict; this function alone guarantees nothing.
func (a *Allocator) VisitNumber() string {
	now := a.now()
	rand4 := 1000 + a.intn(9000)
	ms := now.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%s-%s-%04d%03d", visitNumberPrefix, now.Format("20060102"), rand4, ms)
}

// ServiceCode returns the next SRV-NNNN catalog code.
func (a *Allocator) ServiceCode(ctx context.Context) (string, error) {
	last, err := a.catalog.LastServiceCode(ctx, serviceCodePrefix+"-")
	if err != nil {
		return "", fmt.Errorf("scanning service codes: %w", err)
	}
	return nextInSequence(serviceCodePrefix, last), nil
}

// ProcedureCode returns the next PRC-NNNN catalog code.
func (a *Allocator) ProcedureCode(ctx context.Context) (string, error) {
	last, err := a.catalog.LastProcedureCode(ctx, procedureCodePrefix+"-")
	if err != nil {
		return "", fmt.Errorf("scanning procedure codes: %w", err)
	}
	return nextInSequence(procedureCodePrefix, last), nil
}

// PackageSKU returns the next PKG-NNNN package SKU.
func (a *Allocator) PackageSKU(ctx context.Context) (string, error) {
	last, err := a.catalog.LastPackageSKU(ctx, packageSKUPrefix+"-")
	if err != nil {
		return "", fmt.Errorf("scanning package SKUs: %w", err)
	}
	return nextInSequence(packageSKUPrefix, last), nil
}

// PaymentNumber returns the next PAY number, starting at PAY1000.
func (a *Allocator) PaymentNumber(ctx context.Context) (string, error) {
	last, err := a.billing.LastPaymentNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("scanning payment numbers: %w", err)
	}
	if last == "" {
		return fmt.Sprintf("%s%d", paymentNumberPrefix, firstPaymentNumber), nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(last, paymentNumberPrefix))
	if err != nil {
		return "", fmt.Errorf("malformed payment number %q: %w", last, err)
	}
	return fmt.Sprintf("%s%d", paymentNumberPrefix, n+1), nil
}

// monthPrefix builds "P-200601" style scope prefixes.
func monthPrefix(kind string, now time.Time) string {
	return fmt.Sprintf("%s-%s", kind, now.Format("200601"))
}

// nextInSequence parses the trailing 4-digit counter of the last identifier
// in a "<prefix>-NNNN" sequence and formats the successor. An empty or
// malformed last value restarts the scope at 0001; the scope prefix already
// guarantees no clash with earlier periods.
func nextInSequence(prefix, last string) string {
	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s-%04d", strings.TrimSuffix(prefix, "-"), seq)
}
