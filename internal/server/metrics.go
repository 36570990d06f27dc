// Copyright Precisionmatics Inc., 2026. All rights reserved.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus instruments the server maintains. Each
// server owns its own registry so tests can run servers side by side.
type metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	searchesTotal       *prometheus.CounterVec
	enrichFailuresTotal prometheus.Counter
	archivedTotal       prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "structure_finder_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "structure_finder_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "structure_finder_searches_total",
				Help: "Total number of search pipeline runs",
			},
			[]string{"outcome"},
		),
		enrichFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "structure_finder_enrich_failures_total",
				Help: "Total number of identifiers dropped during enrichment",
			},
		),
		archivedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "structure_finder_archived_structures_total",
				Help: "Total number of structure files written to zip bundles",
			},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.searchesTotal,
		m.enrichFailuresTotal,
		m.archivedTotal,
	)
	return m
}
