package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "gedgraph"

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	jobsTotal     *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	storeRetries  prometheus.Counter
	queueDepth    prometheus.Gauge
	recordsTotal  *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "ingest",
				Name:      "jobs_total",
				Help:      "Ingestion jobs by final status",
			},
			[]string{"status"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "ingest",
				Name:      "phase_duration_seconds",
				Help:      "Time spent in each ingestion phase",
				Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60},
			},
			[]string{"phase"},
		),
		storeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "store_retries_total",
			Help:      "Store batches retried after a retryable error",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "queue_depth",
			Help:      "Jobs waiting for a worker",
		}),
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "ingest",
				Name:      "records_stored_total",
				Help:      "Persons and relationships written to the graph store",
			},
			[]string{"kind"},
		),
	}
	m.Registry.MustRegister(m.jobsTotal, m.phaseDuration, m.storeRetries, m.queueDepth, m.recordsTotal)
	return m
}

func (m *Metrics) jobFinished(status JobStatus) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) observePhase(phase string, since time.Time) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(time.Since(since).Seconds())
}

func (m *Metrics) storeRetried() {
	if m == nil {
		return
	}
	m.storeRetries.Inc()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) recordsStored(persons, relationships int) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues("person").Add(float64(persons))
	m.recordsTotal.WithLabelValues("relationship").Add(float64(relationships))
}
