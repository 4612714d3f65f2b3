package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanners struct {
	maxQueue      int
	queueErr      error
	lastPatient   string
	lastRecord    string
	lastService   string
	lastProcedure string
	lastSKU       string
	lastPayment   string
}

func (f *fakeScanners) MaxQueueNumber(_ context.Context, _ time.Time) (int, error) {
	return f.maxQueue, f.queueErr
}
func (f *fakeScanners) LastPatientNumber(_ context.Context, _ string) (string, error) {
	return f.lastPatient, nil
}
func (f *fakeScanners) LastMedicalRecordNumber(_ context.Context, _ string) (string, error) {
	return f.lastRecord, nil
}
func (f *fakeScanners) LastServiceCode(_ context.Context, _ string) (string, error) {
	return f.lastService, nil
}
func (f *fakeScanners) LastProcedureCode(_ context.Context, _ string) (string, error) {
	return f.lastProcedure, nil
}
func (f *fakeScanners) LastPackageSKU(_ context.Context, _ string) (string, error) {
	return f.lastSKU, nil
}
func (f *fakeScanners) LastPaymentNumber(_ context.Context) (string, error) {
	return f.lastPayment, nil
}

func newTestAllocator(f *fakeScanners, now time.Time, intn func(int) int) *Allocator {
	a := New(f, f, f, f)
	a.now = func() time.Time { return now }
	if intn != nil {
		a.intn = intn
	}
	return a
}

func TestQueueNumber(t *testing.T) {
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("empty day starts at one", func(t *testing.T) {
		a := newTestAllocator(&fakeScanners{maxQueue: 0}, day, nil)
		n, err := a.QueueNumber(context.Background(), day)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("increments the day's maximum", func(t *testing.T) {
		a := newTestAllocator(&fakeScanners{maxQueue: 17}, day, nil)
		n, err := a.QueueNumber(context.Background(), day)
		require.NoError(t, err)
		assert.Equal(t, 18, n)
	})
}

func TestPatientNumber(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	t.Run("first of the month", func(t *testing.T) {
		a := newTestAllocator(&fakeScanners{}, now, nil)
		got, err := a.PatientNumber(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "P-202503-0001", got)
	})

	t.Run("continues the monthly sequence", func(t *testing.T) {
		a := newTestAllocator(&fakeScanners{lastPatient: "P-202503-0041"}, now, nil)
		got, err := a.PatientNumber(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "P-202503-0042", got)
	})

	t.Run("malformed last number restarts the scope", func(t *testing.T) {
		a := newTestAllocator(&fakeScanners{lastPatient: "P-202503-XXXX"}, now, nil)
		got, err := a.PatientNumber(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "P-202503-0001", got)
	})
}

func TestMedicalRecordNumber(t *testing.T) {
	now := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	a := newTestAllocator(&fakeScanners{lastRecord: "RM-202512-0007"}, now, nil)
	got, err := a.MedicalRecordNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RM-202512-0008", got)
}

func TestVisitNumberFormat(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 30, 0, 123*int(time.Millisecond), time.UTC)
	a := newTestAllocator(&fakeScanners{}, now, func(int) int { return 2345 - 1000 })

	got := a.VisitNumber()
	assert.Equal(t, "V-20250314-2345123", got)
}

func TestVisitNumberVariesWithRandomness(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 30, 0, 5*int(time.Millisecond), time.UTC)

	seen := map[string]bool{}
	next := 0
	a := newTestAllocator(&fakeScanners{}, now, func(n int) int {
		next++
		return next % n
	})
	for i := 0; i < 50; i++ {
		seen[a.VisitNumber()] = true
	}
	// Same millisecond, different random suffixes: all candidates distinct.
	assert.Len(t, seen, 50)
}

func TestCatalogCodes(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		scanners *fakeScanners
		alloc    func(a *Allocator) (string, error)
		want     string
	}{
		{"first service code", &fakeScanners{}, func(a *Allocator) (string, error) { return a.ServiceCode(context.Background()) }, "SRV-0001"},
		{"next service code", &fakeScanners{lastService: "SRV-0014"}, func(a *Allocator) (string, error) { return a.ServiceCode(context.Background()) }, "SRV-0015"},
		{"next procedure code", &fakeScanners{lastProcedure: "PRC-0002"}, func(a *Allocator) (string, error) { return a.ProcedureCode(context.Background()) }, "PRC-0003"},
		{"first package SKU", &fakeScanners{}, func(a *Allocator) (string, error) { return a.PackageSKU(context.Background()) }, "PKG-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAllocator(tt.scanners, now, nil)
			got, err := tt.alloc(a)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaymentNumber(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("starts at PAY1000", func(t *testing.T) {
		a := newTestAllocator(&fakeScanners{}, now, nil)
		got, err := a.PaymentNumber(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "PAY1000", got)
	})

	t.Run("increments without padding", func(t *testing.T) {
		a := newTestAllocator(&fakeScanners{lastPayment: "PAY1042"}, now, nil)
		got, err := a.PaymentNumber(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "PAY1043", got)
	})

	t.Run("malformed last number is an error", func(t *testing.T) {
		a := newTestAllocator(&fakeScanners{lastPayment: "PAY-broken"}, now, nil)
		_, err := a.PaymentNumber(context.Background())
		require.Error(t, err)
	})
}
