// Package metrics exposes Prometheus collectors that report supervisor
// activity.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the supervisor's Prometheus collectors.
type Metrics struct {
	TasksAllocated   prometheus.Counter
	TasksOffloaded   prometheus.Counter
	TasksQueued      prometheus.Counter
	TasksExpired     prometheus.Counter
	DispatchFailures *prometheus.CounterVec
	QueueDepth       prometheus.Gauge
	ActiveAgents     prometheus.Gauge
	DispatchDuration prometheus.Histogram
}

var (
	defaultOnce   sync.Once
	sharedMetrics *Metrics
)

// Default returns the package-level metrics instance registered with the
// global Prometheus registry. Collectors are created once to avoid
// duplicate registration panics when the supervisor is constructed more
// than once in a process (unit tests, mainly).
func Default() *Metrics {
	defaultOnce.Do(func() {
		sharedMetrics = MustNew(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNew constructs a Metrics instance using the provided registerer.
// Registration errors panic, mirroring promauto semantics.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		TasksAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homefleet",
			Subsystem: "supervisor",
			Name:      "tasks_allocated_total",
			Help:      "Tasks dispatched to a local agent.",
		}),
		TasksOffloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homefleet",
			Subsystem: "supervisor",
			Name:      "tasks_offloaded_total",
			Help:      "Tasks routed to the external execution path.",
		}),
		TasksQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homefleet",
			Subsystem: "supervisor",
			Name:      "tasks_queued_total",
			Help:      "Tasks that entered the retry queue.",
		}),
		TasksExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homefleet",
			Subsystem: "supervisor",
			Name:      "tasks_expired_total",
			Help:      "Queued tasks dropped past the expiry horizon.",
		}),
		DispatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homefleet",
			Subsystem: "supervisor",
			Name:      "dispatch_failures_total",
			Help:      "Dispatch attempts that failed, by reason.",
		}, []string{"reason"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "homefleet",
			Subsystem: "supervisor",
			Name:      "queue_depth",
			Help:      "Tasks currently waiting in the retry queue.",
		}),
		ActiveAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "homefleet",
			Subsystem: "supervisor",
			Name:      "active_agents",
			Help:      "Agents currently marked active.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "homefleet",
			Subsystem: "supervisor",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of dispatch attempts to local agents.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	collectors := []prometheus.Collector{
		m.TasksAllocated, m.TasksOffloaded, m.TasksQueued, m.TasksExpired,
		m.DispatchFailures, m.QueueDepth, m.ActiveAgents, m.DispatchDuration,
	}
	for _, c := range collectors {
		reg.MustRegister(c)
	}
	return m
}
