// Package metrics exposes Prometheus instruments for council runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Council records delegations and runs. A nil *Council is a valid no-op recorder.
type Council struct {
	registry *prometheus.Registry

	delegations        *prometheus.CounterVec
	delegationErrors   *prometheus.CounterVec
	delegationDuration *prometheus.HistogramVec
	runs               *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	iterations         *prometheus.HistogramVec
}

// NewCouncil registers the council instruments on a private registry.
func NewCouncil() *Council {
	c := &Council{
		registry: prometheus.NewRegistry(),
		delegations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "council_delegations_total",
			Help: "Total calls made to agents, by coordinator, agent and step.",
		}, []string{"coordinator", "agent", "step"}),
		delegationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "council_delegation_errors_total",
			Help: "Total failed agent calls.",
		}, []string{"coordinator", "agent", "step"}),
		delegationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "council_delegation_duration_seconds",
			Help:    "Agent call duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"coordinator", "step"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "council_runs_total",
			Help: "Total council runs by final state and outcome.",
		}, []string{"coordinator", "state", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "council_run_duration_seconds",
			Help:    "End-to-end council run duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"coordinator"}),
		iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "council_run_iterations",
			Help:    "Model calls consumed per run.",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		}, []string{"coordinator"}),
	}

	c.registry.MustRegister(
		c.delegations,
		c.delegationErrors,
		c.delegationDuration,
		c.runs,
		c.runDuration,
		c.iterations,
	)
	return c
}

// ObserveDelegation records one agent call.
func (c *Council) ObserveDelegation(coordinator, agent, step string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	c.delegations.WithLabelValues(coordinator, agent, step).Inc()
	c.delegationDuration.WithLabelValues(coordinator, step).Observe(elapsed.Seconds())
	if err != nil {
		c.delegationErrors.WithLabelValues(coordinator, agent, step).Inc()
	}
}

// ObserveRun records a finished run.
func (c *Council) ObserveRun(coordinator, state string, iterations int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.runs.WithLabelValues(coordinator, state, outcome).Inc()
	c.runDuration.WithLabelValues(coordinator).Observe(elapsed.Seconds())
	c.iterations.WithLabelValues(coordinator).Observe(float64(iterations))
}

// Registry returns the registry holding the council instruments.
func (c *Council) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the Prometheus exposition format.
func (c *Council) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
