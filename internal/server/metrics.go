package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the Prometheus collectors for one handler. Each handler owns
// its registry so several can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	SimulationDraws  prometheus.Counter
	CurvePoints      prometheus.Counter
	InfeasibleLimits prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &metrics{
		registry: registry,

		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airline_analytics_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"route", "status"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airline_analytics_request_duration_seconds",
				Help:    "Duration of API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		SimulationDraws: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "airline_analytics_simulation_draws_total",
				Help: "Total number of revenue draws simulated",
			},
		),

		CurvePoints: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "airline_analytics_curve_points_total",
				Help: "Total number of overbooking curve points evaluated",
			},
		),

		InfeasibleLimits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "airline_analytics_infeasible_limits_total",
				Help: "Evaluations where no sales count met the risk ceiling",
			},
		),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
