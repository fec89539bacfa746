package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ReadingsIngested     prometheus.Counter
	ReadingsRejected     prometheus.Counter
	DurableWriteFailures prometheus.Counter
	DurableQueryFailures prometheus.Counter
	AuditWriteFailures   prometheus.Counter
	StreamDropped        prometheus.Counter
	StreamSubscribers    prometheus.Gauge
	RequestLatency       *prometheus.HistogramVec
}

// New creates all metrics on the default Prometheus registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg. Tests pass a fresh registry so
// repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReadingsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "soundsense_readings_ingested_total",
			Help: "Total number of sensor readings accepted by the ingest pipeline",
		}),
		ReadingsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "soundsense_readings_rejected_total",
			Help: "Total number of sensor readings rejected by validation",
		}),
		DurableWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "soundsense_durable_write_failures_total",
			Help: "Reading inserts that failed and fell back to the in-memory buffer",
		}),
		DurableQueryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "soundsense_durable_query_failures_total",
			Help: "Reading queries that failed and fell back to the in-memory buffer",
		}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "soundsense_audit_write_failures_total",
			Help: "Audit log appends that failed and were swallowed",
		}),
		StreamDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "soundsense_stream_dropped_total",
			Help: "Observations dropped from slow subscriber queues",
		}),
		StreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "soundsense_stream_subscribers",
			Help: "Currently connected live-stream subscribers",
		}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "soundsense_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
