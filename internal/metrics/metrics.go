// Package metrics exposes the cage service's Prometheus metrics: pipe
// traffic counters and the controller state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller states tracked by the state gauge.
var states = []string{"stopped", "start-pending", "running", "stop-pending"}

// Metrics holds the registry and collectors for one service run.
type Metrics struct {
	registry *prometheus.Registry

	bytesRead    *prometheus.CounterVec
	bytesWritten prometheus.Counter
	state        *prometheus.GaugeVec
	startedAt    prometheus.Gauge
}

// New creates a fresh registry with all cage service collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		bytesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cagesvc_pipe_read_bytes_total",
			Help: "Bytes read from the satellite's output pipes.",
		}, []string{"source"}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cagesvc_pipe_written_bytes_total",
			Help: "Bytes written to the satellite's stdin pipe.",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cagesvc_controller_state",
			Help: "Current controller state (1 for the active state, 0 otherwise).",
		}, []string{"state"}),
		startedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cagesvc_satellite_start_timestamp_seconds",
			Help: "Unix time the satellite process was spawned.",
		}),
	}

	registry.MustRegister(m.bytesRead, m.bytesWritten, m.state, m.startedAt)
	m.SetState("stopped")
	return m
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AddBytesRead records bytes drained from stdout or stderr.
func (m *Metrics) AddBytesRead(source string, n int) {
	m.bytesRead.WithLabelValues(source).Add(float64(n))
}

// AddBytesWritten records bytes accepted by the satellite's stdin.
func (m *Metrics) AddBytesWritten(n int) {
	m.bytesWritten.Add(float64(n))
}

// SetState marks state as the active controller state.
func (m *Metrics) SetState(state string) {
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.state.WithLabelValues(s).Set(v)
	}
}

// SetSatelliteStart records the spawn time of the current satellite.
func (m *Metrics) SetSatelliteStart(unixSeconds float64) {
	m.startedAt.Set(unixSeconds)
}
