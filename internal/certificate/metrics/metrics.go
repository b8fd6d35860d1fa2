package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for certificate generation.
type Metrics struct {
	DocumentsRendered   *prometheus.CounterVec
	BodyLinesDropped    *prometheus.CounterVec
	ArchivesGenerated   *prometheus.CounterVec
	NoDataResponses     *prometheus.CounterVec
	GenerationFailures  *prometheus.CounterVec
	CoalescedRequests   *prometheus.CounterVec
	GenerationLatency   *prometheus.HistogramVec
	ArchiveSizeBytes    *prometheus.HistogramVec
	ResourceCacheHits   prometheus.Counter
	ResourceCacheMisses prometheus.Counter
}

// New registers and returns certificate metrics collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certdesk_documents_rendered_total",
			Help: "Total number of certificate documents rendered, labeled by profile",
		}, []string{"profile"}),
		BodyLinesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certdesk_body_lines_dropped_total",
			Help: "Body paragraph lines that did not fit the frame, labeled by profile",
		}, []string{"profile"}),
		ArchivesGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certdesk_archives_generated_total",
			Help: "Total number of archives generated, labeled by profile and kind (full or batch)",
		}, []string{"profile", "kind"}),
		NoDataResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certdesk_generation_no_data_total",
			Help: "Generation requests that found nothing to generate, labeled by profile",
		}, []string{"profile"}),
		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certdesk_generation_failures_total",
			Help: "Generation requests that failed, labeled by profile",
		}, []string{"profile"}),
		CoalescedRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certdesk_generation_coalesced_total",
			Help: "Generation requests that shared the result of an in-flight identical request",
		}, []string{"profile"}),
		GenerationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certdesk_generation_latency_seconds",
			Help:    "Latency of archive generation in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"profile"}),
		ArchiveSizeBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certdesk_archive_size_bytes",
			Help:    "Size of generated archives in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}, []string{"profile"}),
		ResourceCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "certdesk_resource_cache_hits_total",
			Help: "Background and font loads served from the resource cache",
		}),
		ResourceCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "certdesk_resource_cache_misses_total",
			Help: "Background and font loads read from the filesystem",
		}),
	}
}

func (m *Metrics) IncrementDocumentsRendered(profile string) {
	m.DocumentsRendered.WithLabelValues(profile).Inc()
}

func (m *Metrics) AddBodyLinesDropped(profile string, n int) {
	m.BodyLinesDropped.WithLabelValues(profile).Add(float64(n))
}

func (m *Metrics) IncrementArchivesGenerated(profile, kind string) {
	m.ArchivesGenerated.WithLabelValues(profile, kind).Inc()
}

func (m *Metrics) IncrementNoData(profile string) {
	m.NoDataResponses.WithLabelValues(profile).Inc()
}

func (m *Metrics) IncrementGenerationFailures(profile string) {
	m.GenerationFailures.WithLabelValues(profile).Inc()
}

func (m *Metrics) IncrementCoalesced(profile string) {
	m.CoalescedRequests.WithLabelValues(profile).Inc()
}

func (m *Metrics) ObserveGeneration(profile string, elapsed time.Duration) {
	m.GenerationLatency.WithLabelValues(profile).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveArchiveSize(profile string, size int) {
	m.ArchiveSizeBytes.WithLabelValues(profile).Observe(float64(size))
}

func (m *Metrics) IncrementResourceCacheHit() {
	m.ResourceCacheHits.Inc()
}

func (m *Metrics) IncrementResourceCacheMiss() {
	m.ResourceCacheMisses.Inc()
}
