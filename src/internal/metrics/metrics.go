package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sikep_admin"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// SessionMetrics covers logins and activity tracker transitions.
type SessionMetrics struct {
	Logins      prometheus.Counter
	Ended       *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Mounted     prometheus.Gauge
}

func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Total number of successful logins.",
		}),
		Ended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "ended_total",
			Help:      "Total number of ended sessions, by reason.",
		}, []string{"reason"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Activity tracker state transitions, by target state.",
		}, []string{"state"}),
		Mounted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "trackers_mounted",
			Help:      "Number of mounted activity trackers.",
		}),
	}

	reg.MustRegister(m.Logins, m.Ended, m.Transitions, m.Mounted)
	return m
}

// HierarchyMetrics covers reassignment workflow runs.
type HierarchyMetrics struct {
	Runs  *prometheus.CounterVec
	Items *prometheus.CounterVec
}

func NewHierarchyMetrics(reg prometheus.Registerer) *HierarchyMetrics {
	m := &HierarchyMetrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hierarchy",
			Name:      "reassignment_runs_total",
			Help:      "Reassignment workflow runs, by outcome.",
		}, []string{"outcome"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hierarchy",
			Name:      "reassignment_items_total",
			Help:      "Supervisor re-pointing attempts, by step and outcome.",
		}, []string{"step", "outcome"}),
	}

	reg.MustRegister(m.Runs, m.Items)
	return m
}
