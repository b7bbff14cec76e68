package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects command and server metrics in its own registry.
//
// It tracks:
//   - Command invocations by command and result (ok|rejected|error)
//   - Command latency
//   - Validation rejections by command and reason
//   - Online players and player record saves
type Metrics struct {
	registry *prometheus.Registry

	// CommandCounter counts invocations.
	// Labels: command, result
	CommandCounter *prometheus.CounterVec

	// CommandDuration measures the time from parsing to handler return.
	// Labels: command
	// Buckets: 0.1ms to 1s
	CommandDuration *prometheus.HistogramVec

	// RejectionCounter counts failed verifications.
	// Labels: command, reason
	RejectionCounter *prometheus.CounterVec

	// OnlinePlayers is the number of connected players.
	OnlinePlayers prometheus.Gauge

	// RecordsSaved counts player records written to the store.
	// Labels: status (success|error)
	RecordsSaved *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CommandCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleplugin_commands_total",
				Help: "Total number of command invocations by command and result",
			},
			[]string{"command", "result"},
		),

		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "simpleplugin_command_duration_seconds",
				Help:    "Duration of command execution in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"command"},
		),

		RejectionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleplugin_command_rejections_total",
				Help: "Total number of rejected command invocations by command and reason",
			},
			[]string{"command", "reason"},
		),

		OnlinePlayers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "simpleplugin_online_players",
				Help: "Number of players currently online",
			},
		),

		RecordsSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleplugin_player_records_saved_total",
				Help: "Total number of player record saves by status",
			},
			[]string{"status"},
		),
	}
}

// RecordInvocation records one command execution.
func (m *Metrics) RecordInvocation(command, result string, d time.Duration) {
	m.CommandCounter.WithLabelValues(command, result).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordRejection records one failed verification.
func (m *Metrics) RecordRejection(command, reason string) {
	m.RejectionCounter.WithLabelValues(command, reason).Inc()
}

// SetOnlinePlayers sets the online player gauge.
func (m *Metrics) SetOnlinePlayers(n int) {
	m.OnlinePlayers.Set(float64(n))
}

// RecordSaves records the outcome of a save pass.
func (m *Metrics) RecordSaves(saved int, err error) {
	m.RecordsSaved.WithLabelValues("success").Add(float64(saved))
	if err != nil {
		m.RecordsSaved.WithLabelValues("error").Inc()
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
