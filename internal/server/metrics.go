package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the results API
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal *prometheus.CounterVec
	EventsServed  prometheus.Counter
}

// NewMetrics creates and registers the API metrics on a private registry so
// tests can run multiple servers without collisions
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evstudy_requests_total",
			Help: "API requests by route and status code.",
		}, []string{"route", "code"}),
		EventsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evstudy_events_served_total",
			Help: "Labeled event records returned by the events endpoint.",
		}),
	}

	registry.MustRegister(m.RequestsTotal, m.EventsServed)
	return m
}

// Handler exposes the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
