package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine counters exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	QuotesIssued    prometheus.Counter
	Recommendations prometheus.Counter
	MultiRailRoutes *prometheus.CounterVec
	DealTransitions *prometheus.CounterVec
	RuleMatches     prometheus.Counter
}

// NewMetrics builds and registers the metric set on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crossrail",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
		QuotesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crossrail",
			Name:      "quotes_issued_total",
			Help:      "Firm quotes issued by the pricing engine.",
		}),
		Recommendations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crossrail",
			Name:      "routing_recommendations_total",
			Help:      "Fiat routing recommendations served.",
		}),
		MultiRailRoutes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crossrail",
			Name:      "multirail_routes_total",
			Help:      "Cross-rail routings by winning template.",
		}, []string{"template"}),
		DealTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crossrail",
			Name:      "deal_transitions_total",
			Help:      "Deal lifecycle transitions by operation.",
		}, []string{"operation"}),
		RuleMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crossrail",
			Name:      "rule_matches_total",
			Help:      "Business rules applied to requests.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		m.RequestDuration,
		m.QuotesIssued,
		m.Recommendations,
		m.MultiRailRoutes,
		m.DealTransitions,
		m.RuleMatches,
	)
	return m
}

// Handler serves the Prometheus exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
