// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GatewayRequestDuration tracks AI backend round trips.
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_gateway_request_duration_seconds",
			Help:    "AI backend request duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"channel", "outcome"},
	)

	// GatewayFallbacksTotal counts requests answered by the fallback policy.
	GatewayFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_gateway_fallbacks_total",
			Help: "AI backend failures recovered with a fallback result",
		},
		[]string{"channel", "reason"},
	)

	// SessionsActive tracks in-progress chat and call sessions.
	SessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of in-progress sessions",
		},
		[]string{"channel"},
	)

	// SessionsCompletedTotal counts ended sessions.
	SessionsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_completed_total",
			Help: "Total sessions completed",
		},
		[]string{"channel", "ai_handled"},
	)

	// MessagesTotal tracks transcript appends.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total transcript messages appended",
		},
		[]string{"channel", "role"},
	)

	// ImagesAnalyzedTotal counts vision submissions.
	ImagesAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_images_analyzed_total",
			Help: "Total images submitted for analysis",
		},
		[]string{"fallback"},
	)

	// CustomerMutationsTotal counts customer creations and updates.
	CustomerMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_mutations_total",
			Help: "Total customer upserts by kind",
		},
		[]string{"kind"},
	)

	// EventsPublishedTotal counts console events sent to NATS.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Console events published",
		},
		[]string{"type", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGateway records one AI backend round trip.
func RecordGateway(channel, outcome string, duration float64) {
	GatewayRequestDuration.WithLabelValues(channel, outcome).Observe(duration)
}

// RecordFallback records a recovered backend failure.
func RecordFallback(channel, reason string) {
	GatewayFallbacksTotal.WithLabelValues(channel, reason).Inc()
}
