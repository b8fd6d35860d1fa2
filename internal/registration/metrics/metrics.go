package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for registration operations.
type Metrics struct {
	Submissions           *prometheus.CounterVec
	SubmissionFailures    *prometheus.CounterVec
	StoreOperationLatency *prometheus.HistogramVec
	StoredRecords         *prometheus.GaugeVec
}

// New registers and returns registration metrics collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certdesk_registrations_total",
			Help: "Total number of registrations stored, labeled by profile",
		}, []string{"profile"}),
		SubmissionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certdesk_registration_failures_total",
			Help: "Registrations that could not be stored, labeled by profile",
		}, []string{"profile"}),
		StoreOperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certdesk_registration_store_latency_seconds",
			Help:    "Latency of registration store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		StoredRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "certdesk_registration_records",
			Help: "Records in the store as of the last load, labeled by profile",
		}, []string{"profile"}),
	}
}

func (m *Metrics) IncrementSubmissions(profile string) {
	m.Submissions.WithLabelValues(profile).Inc()
}

func (m *Metrics) IncrementSubmissionFailures(profile string) {
	m.SubmissionFailures.WithLabelValues(profile).Inc()
}

func (m *Metrics) ObserveStoreOperation(operation string, elapsed time.Duration) {
	m.StoreOperationLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) SetStoredRecords(profile string, n int) {
	m.StoredRecords.WithLabelValues(profile).Set(float64(n))
}
