package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	VisitsCreatedTotal   prometheus.Counter
	VisitStatusTotal     *prometheus.CounterVec
	TreatmentsTotal      *prometheus.CounterVec
	PaymentsTotal        *prometheus.CounterVec
	CommissionsTotal     *prometheus.CounterVec
	VisitNumberRetries   prometheus.Counter
	VisitNumberExhausted prometheus.Counter

	DBQueryDuration *prometheus.HistogramVec
	DBConnections   prometheus.Gauge

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	return NewCollectorWith(prometheus.DefaultRegisterer, serviceName)
}

// NewCollectorWith builds the collector against an explicit registerer.
// Tests use it with a fresh registry to avoid duplicate registration.
func NewCollectorWith(reg prometheus.Registerer, serviceName string) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		VisitsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "visits_created_total",
			Help:      "Total number of visits opened.",
		}),

		VisitStatusTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "visit_status_transitions_total",
			Help:      "Visit status transitions by target status.",
		}, []string{"status"}),

		TreatmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "treatments_total",
			Help:      "Treatment cascade operations by kind.",
		}, []string{"operation"}),

		PaymentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "billing",
			Name:      "payments_total",
			Help:      "Payments recorded by final status.",
		}, []string{"status"}),

		CommissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "billing",
			Name:      "commissions_total",
			Help:      "Commission entries written by path (immediate or settlement).",
		}, []string{"path"}),

		VisitNumberRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "sequence",
			Name:      "visit_number_retries_total",
			Help:      "Visit-number candidates rejected by the unique constraint.",
		}),

		VisitNumberExhausted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "sequence",
			Name:      "visit_number_exhausted_total",
			Help:      "Visit creations that failed after exhausting all retries. Alert if non-zero.",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation", "table"}),

		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "open_connections",
			Help:      "Current number of open database connections.",
		}),

		AuditEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
