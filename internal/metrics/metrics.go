// Package metrics exposes solve counters and timings to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"battery-dispatch/internal/dispatch"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	solves        *prometheus.CounterVec
	solveDuration prometheus.Histogram
	scenarios     prometheus.Histogram
	objective     *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_solves_total",
			Help: "Model solves by outcome",
		}, []string{"status"}),
		solveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_solve_duration_seconds",
			Help:    "Wall time of build plus solve",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		scenarios: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_scenarios",
			Help:    "Scenario count per solved model",
			Buckets: []float64{1, 10, 25, 50, 100, 250, 500, 1000},
		}),
		objective: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dispatch_last_cost",
			Help: "Costs of the most recent solved model",
		}, []string{"kind"}),
	}
}

// Observe records one solve attempt. res may be nil on failure.
func (m *Metrics) Observe(status string, elapsed time.Duration, res *dispatch.Result) {
	if m == nil {
		return
	}
	m.solves.WithLabelValues(status).Inc()
	m.solveDuration.Observe(elapsed.Seconds())
	if res == nil {
		return
	}
	m.scenarios.Observe(float64(len(res.ScenarioCosts)))
	m.objective.WithLabelValues("objective").Set(res.Objective)
	m.objective.WithLabelValues("predicted").Set(res.PredictedCost)
	m.objective.WithLabelValues("actual").Set(res.ActualCost)
	m.objective.WithLabelValues("cvar").Set(res.CVaR)
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) SolveCounter(status string) prometheus.Counter {
	return m.solves.WithLabelValues(status)
}
