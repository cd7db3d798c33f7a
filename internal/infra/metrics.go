package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	SweepRuns          *prometheus.CounterVec
	SweepDuration      prometheus.Histogram
	SweepDowngrades    prometheus.Counter
	SweepNotifications prometheus.Counter
	SweepErrors        prometheus.Counter
	UsageDenials       *prometheus.CounterVec
	UsageSyncFailures  prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "masareefy",
			Name:      "expiry_sweep_runs_total",
			Help:      "Expiry sweep runs by outcome",
		}, []string{"outcome"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "masareefy",
			Name:      "expiry_sweep_duration_seconds",
			Help:      "Wall-clock duration of expiry sweeps",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		SweepDowngrades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "masareefy",
			Name:      "subscriptions_downgraded_total",
			Help:      "Subscriptions downgraded to the Free plan by the sweep",
		}),
		SweepNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "masareefy",
			Name:      "trial_notifications_created_total",
			Help:      "Trial notifications created",
		}),
		SweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "masareefy",
			Name:      "expiry_sweep_item_errors_total",
			Help:      "Per-subscription failures during expiry sweeps",
		}),
		UsageDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "masareefy",
			Name:      "usage_gate_denials_total",
			Help:      "Resource additions refused by the usage gate",
		}, []string{"resource_type"}),
		UsageSyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "masareefy",
			Name:      "usage_sync_failures_total",
			Help:      "Usage cache recomputations that failed",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "masareefy",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "masareefy",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.SweepRuns, m.SweepDuration, m.SweepDowngrades, m.SweepNotifications, m.SweepErrors,
		m.UsageDenials, m.UsageSyncFailures, m.HTTPRequests, m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
