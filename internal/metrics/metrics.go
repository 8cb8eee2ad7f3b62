// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render results.
const (
	ResultOK              = "ok"
	ResultMissingVariable = "missing_variable"
	ResultInvalid         = "invalid"
	ResultNotRenderable   = "not_renderable"
)

// Cache lookups.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	TemplatesRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wapanel_templates_rendered_total",
			Help: "Total number of template renders by template type and result",
		},
		[]string{"type", "result"},
	)

	TemplatesSeeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wapanel_templates_seeded_total",
			Help: "Total number of system templates inserted by seeding",
		},
	)

	TemplateCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wapanel_template_cache_total",
			Help: "System template cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wapanel_http_requests_total",
			Help: "HTTP requests by method and status code",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wapanel_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
