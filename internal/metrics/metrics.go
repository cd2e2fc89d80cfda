package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	backendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbook",
			Name:      "backend_errors_total",
			Help:      "Failed backend calls by operation.",
		},
		[]string{"op"},
	)

	selectionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbook",
			Name:      "selection_outcomes_total",
			Help:      "Calendar clicks by outcome.",
		},
		[]string{"outcome"},
	)

	viewResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbook",
			Name:      "view_results_total",
			Help:      "View builds by view and status (ok, empty, error).",
		},
		[]string{"view", "status"},
	)

	events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbook",
			Name:      "events_total",
			Help:      "Published domain events by type.",
		},
		[]string{"type"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, backendErrors, selectionOutcomes, viewResults, events)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBackendError(op string) {
	backendErrors.WithLabelValues(op).Inc()
}

func IncSelection(outcome string) {
	selectionOutcomes.WithLabelValues(outcome).Inc()
}

func IncView(view, status string) {
	viewResults.WithLabelValues(view, status).Inc()
}

func IncEvent(eventType string) {
	events.WithLabelValues(eventType).Inc()
}
