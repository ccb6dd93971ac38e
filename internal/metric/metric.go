// Package metric exposes the console's prometheus collectors.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll cycle outcomes.
const (
	PollOK          = "ok"
	PollFailed      = "failed"
	PollUnauthorized = "unauthorized"
	PollStale       = "stale"
)

type Metric struct {
	registry *prometheus.Registry

	pollCycles   *prometheus.CounterVec
	pollTiming   prometheus.Summary
	commits      *prometheus.CounterVec
	commands     *prometheus.CounterVec
	countdown    prometheus.Gauge
	temperature  prometheus.Gauge
	humidity     prometheus.Gauge
	errorCounter *prometheus.CounterVec
}

// New builds collectors on a private registry so several instances can
// coexist in tests.
func New() *Metric {
	m := &Metric{
		registry: prometheus.NewRegistry(),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hatchery_poll_cycles_total",
			Help: "Telemetry poll cycles by outcome.",
		}, []string{"outcome"}),
		pollTiming: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: "hatchery_poll_cycle_seconds",
			Help: "Duration of the latest+history fetch pair.",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hatchery_config_commits_total",
			Help: "Configuration commits by result.",
		}, []string{"result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hatchery_commands_total",
			Help: "Actuator commands by name and result.",
		}, []string{"command", "result"}),
		countdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hatchery_turn_countdown_seconds",
			Help: "Seconds until the next egg turn reminder.",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hatchery_temperature_celsius",
			Help: "Last polled temperature.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hatchery_humidity_percent",
			Help: "Last polled relative humidity.",
		}),
		errorCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hatchery_errors_total",
			Help: "Errors by component.",
		}, []string{"component"}),
	}

	m.registry.MustRegister(
		m.pollCycles,
		m.pollTiming,
		m.commits,
		m.commands,
		m.countdown,
		m.temperature,
		m.humidity,
		m.errorCounter,
	)
	return m
}

// All recorders are nil-safe so components can run without metrics.

func (m *Metric) PollCycle(start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.pollCycles.WithLabelValues(outcome).Inc()
	m.pollTiming.Observe(time.Since(start).Seconds())
}

func (m *Metric) Reading(temperature, humidity float64) {
	if m == nil {
		return
	}
	m.temperature.Set(temperature)
	m.humidity.Set(humidity)
}

func (m *Metric) Commit(result string) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(result).Inc()
}

func (m *Metric) Command(name, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name, result).Inc()
}

func (m *Metric) Countdown(seconds int) {
	if m == nil {
		return
	}
	m.countdown.Set(float64(seconds))
}

func (m *Metric) ErrorCounter(component string) {
	if m == nil {
		return
	}
	m.errorCounter.WithLabelValues(component).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metric) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
