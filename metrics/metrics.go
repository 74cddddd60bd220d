// Package metrics registers the Prometheus collectors exported by RagMesh.
// Collectors are package-level promauto vars so any component can record
// without wiring a registry through every constructor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bus metrics
	MessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragmesh_messages_published_total",
			Help: "Messages published on the bus",
		},
		[]string{"kind"},
	)

	RequestTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragmesh_request_timeouts_total",
			Help: "Request/response exchanges that timed out",
		},
	)

	HandlerFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragmesh_handler_failures_total",
			Help: "Subscriber handlers that returned an error or panicked",
		},
	)

	// Workflow metrics
	WorkflowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragmesh_workflows_total",
			Help: "Completed workflows by kind and terminal status",
		},
		[]string{"kind", "status"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragmesh_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragmesh_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)
