// Package metrics exposes Prometheus collectors for storage activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storage records the outcome and latency of backend operations.
type Storage struct {
	mode     string
	ops      *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	uploaded prometheus.Counter
}

// MustNewStorage registers the storage collectors with reg, labelled with the
// active backend mode. Registration errors panic, like the promauto helpers.
func MustNewStorage(reg prometheus.Registerer, mode string) *Storage {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filegate",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Storage backend operations by outcome.",
		},
		[]string{"backend", "op", "outcome"},
	)
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "filegate",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in storage backend operations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
	uploaded := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "filegate",
		Subsystem: "storage",
		Name:      "uploaded_bytes_total",
		Help:      "Bytes accepted by successful uploads.",
	})

	reg.MustRegister(ops, latency, uploaded)

	return &Storage{mode: mode, ops: ops, latency: latency, uploaded: uploaded}
}

// Observe records one operation. A nil receiver is a no-op.
func (m *Storage) Observe(op, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(m.mode, op, outcome).Inc()
	m.latency.WithLabelValues(m.mode, op).Observe(time.Since(started).Seconds())
}

// AddUploaded counts bytes from a successful upload.
func (m *Storage) AddUploaded(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.uploaded.Add(float64(n))
}
