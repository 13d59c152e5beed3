package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"path", "method"})

	PageRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "page_renders_total",
		Help: "Total number of rendered portal pages",
	}, []string{"page"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "job_processing_seconds",
		Help: "Time taken to process jobs",
	}, []string{"type", "status"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Total number of processed jobs",
	}, []string{"type", "status"})

	JobRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_retries_total",
		Help: "Total number of job retries",
	}, []string{"type"})

	JobsDeadLetter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_dead_letter_total",
		Help: "Total number of jobs moved to dead letter queue",
	}, []string{"type"})

	ShiftTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shift_transitions_total",
		Help: "Shift status changes made by professionals",
	}, []string{"to"})

	ShiftsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shifts_imported_total",
		Help: "Shift offers imported from pharmacy webhooks",
	}, []string{"source"})

	CatalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_reloads_total",
		Help: "Catalog reload attempts",
	}, []string{"outcome"})
)
