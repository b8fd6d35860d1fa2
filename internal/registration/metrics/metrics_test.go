package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementSubmissions("conference")
	m.IncrementSubmissionFailures("workshop")
	m.SetStoredRecords("conference", 12)
	m.ObserveStoreOperation("append", 2*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("conference")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionFailures.WithLabelValues("workshop")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.StoredRecords.WithLabelValues("conference")))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "certdesk_registration_store_latency_seconds"))
}
