package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors the Coordinator's run-scoped counters onto
// Prometheus collectors. Exposition (whether an HTTP endpoint ever
// serves these) is entirely the caller's concern: the pipeline's
// components only ever call Inc/Add/Set/Observe on the collectors
// below, never anything HTTP-shaped.
type Metrics struct {
	Produced       prometheus.Counter
	Consumed       prometheus.Counter
	Retained       prometheus.Counter
	RejectedParse  prometheus.Counter
	RejectedInsert prometheus.Counter
	OfferRefused   prometheus.Counter
	BufferOccupied prometheus.Gauge
	CommitLatency  prometheus.Histogram
}

// NewMetrics registers a fresh set of collectors on reg. Passing a
// dedicated prometheus.Registry (rather than the global default) keeps
// repeated pipeline runs in the same process from colliding on
// duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Produced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_produced_total", Help: "Records emitted by readers.",
		}),
		Consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_consumed_total", Help: "Records taken from the buffer.",
		}),
		Retained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_retained_total", Help: "Records surviving the energy filter.",
		}),
		RejectedParse: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_rejected_parse_total", Help: "Lines that failed to parse.",
		}),
		RejectedInsert: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_rejected_insert_total", Help: "Records in batches that failed to commit.",
		}),
		OfferRefused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_offer_refused_total", Help: "Bounded buffer offers that timed out before a blocking put.",
		}),
		BufferOccupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ingest_buffer_occupied", Help: "Observed buffer occupancy.",
		}),
		CommitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "ingest_sink_commit_seconds", Help: "Sink insertBatch latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Produced, m.Consumed, m.Retained, m.RejectedParse,
		m.RejectedInsert, m.OfferRefused, m.BufferOccupied, m.CommitLatency)
	return m
}

// Noop returns a Metrics value registered only on a fresh private
// registry that nothing exposes, so its collectors are safe to call but
// observed nowhere; used when the caller does not want a Prometheus
// registry at all.
func Noop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
