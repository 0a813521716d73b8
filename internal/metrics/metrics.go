// Package metrics provides Prometheus metrics for the energy engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	CommandsTotal       *prometheus.CounterVec
	CommandDuration     *prometheus.HistogramVec
	TransitionsTotal    *prometheus.CounterVec
	QueuedPingsReleased prometheus.Counter
	EnergyLevelServed   prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	PingsPurged         *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "energy_commands_total",
				Help: "Total number of engine commands by command and outcome.",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "energy_command_duration_seconds",
				Help:    "Command processing duration by command.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "energy_transitions_total",
				Help: "Committed state transitions by entity and from/to state.",
			},
			[]string{"entity", "from", "to"},
		),
		QueuedPingsReleased: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "energy_queued_pings_released_total",
				Help: "Gentle pings delivered when their recipient left deep work.",
			},
		),
		EnergyLevelServed: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "energy_level_served",
				Help:    "Distribution of energy levels returned to readers.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "energy_http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		PingsPurged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "energy_pings_purged_total",
				Help: "Pings removed by retention, by reason.",
			},
			[]string{"reason"},
		),
		registry: reg,
	}

	reg.MustRegister(m.CommandsTotal)
	reg.MustRegister(m.CommandDuration)
	reg.MustRegister(m.TransitionsTotal)
	reg.MustRegister(m.QueuedPingsReleased)
	reg.MustRegister(m.EnergyLevelServed)
	reg.MustRegister(m.HTTPRequestsTotal)
	reg.MustRegister(m.PingsPurged)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (for testing).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordCommand counts a command outcome and its duration.
func (m *Metrics) RecordCommand(command, outcome string, seconds float64) {
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(seconds)
}

// RecordTransition counts one committed state change.
func (m *Metrics) RecordTransition(entity, from, to string) {
	m.TransitionsTotal.WithLabelValues(entity, from, to).Inc()
}

// AddReleasedPings adds n released queued pings.
func (m *Metrics) AddReleasedPings(n int) {
	if n > 0 {
		m.QueuedPingsReleased.Add(float64(n))
	}
}

// ObserveEnergy records a served energy level.
func (m *Metrics) ObserveEnergy(level int) {
	m.EnergyLevelServed.Observe(float64(level))
}

// RecordHTTP counts one HTTP response.
func (m *Metrics) RecordHTTP(method, route, status string) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// AddPurgedPings adds n pings removed by retention for reason.
func (m *Metrics) AddPurgedPings(reason string, n int64) {
	if n > 0 {
		m.PingsPurged.WithLabelValues(reason).Add(float64(n))
	}
}
