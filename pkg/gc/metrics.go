package gc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the collector's Prometheus series. A nil *Metrics records
// nothing.
type Metrics struct {
	runs           *prometheus.CounterVec
	objectsRemoved prometheus.Counter
	bytesReclaimed prometheus.Counter
	logsExpired    prometheus.Counter
	reachable      prometheus.Gauge
	duration       prometheus.Histogram
}

// NewMetrics registers the collector series with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sourcevault_gc_runs_total",
			Help: "Total number of collection runs by outcome",
		}, []string{"outcome"}),
		objectsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "sourcevault_gc_objects_removed_total",
			Help: "Total number of unreachable objects deleted",
		}),
		bytesReclaimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sourcevault_gc_bytes_reclaimed_total",
			Help: "Total bytes freed by deleting unreachable objects",
		}),
		logsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "sourcevault_gc_log_entries_expired_total",
			Help: "Total movement-log entries dropped by expiry",
		}),
		reachable: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sourcevault_gc_reachable_objects",
			Help: "Objects found reachable by the most recent run",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sourcevault_gc_duration_seconds",
			Help:    "Duration of collection runs in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
		}),
	}
}

func (m *Metrics) observe(r Report, seconds float64, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.runs.WithLabelValues("error").Inc()
		return
	}
	outcome := "ok"
	if r.DryRun {
		outcome = "dry_run"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
	m.reachable.Set(float64(r.Kept))
	if r.DryRun {
		return
	}
	m.objectsRemoved.Add(float64(r.Removed))
	m.bytesReclaimed.Add(float64(r.BytesReclaimed))
	m.logsExpired.Add(float64(r.ExpiredLogEntries))
}
