package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// troubleshootTotal counts finished troubleshooting requests.
	// Labels: route (kb, sme, research, general, clarify), vendor.
	troubleshootTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechanic",
		Subsystem: "troubleshoot",
		Name:      "requests_total",
		Help:      "Total troubleshooting requests by terminal route",
	}, []string{"route", "vendor"})

	// troubleshootConfidence tracks the distribution of final answer
	// confidence. Labels: route.
	troubleshootConfidence = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mechanic",
		Subsystem: "troubleshoot",
		Name:      "confidence",
		Help:      "Distribution of final answer confidence scores",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1.0},
	}, []string{"route"})

	// troubleshootLatency measures end-to-end request latency.
	// Labels: route.
	troubleshootLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mechanic",
		Subsystem: "troubleshoot",
		Name:      "latency_seconds",
		Help:      "End-to-end troubleshooting latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"route"})

	// providerErrors counts upstream provider failures.
	// Labels: provider (embedding, reasoning), kind (timeout, failure).
	providerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechanic",
		Subsystem: "provider",
		Name:      "errors_total",
		Help:      "Total upstream provider errors",
	}, []string{"provider", "kind"})

	// gapsLogged counts gap rows written or incremented.
	// Labels: outcome (created, incremented).
	gapsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechanic",
		Subsystem: "gaps",
		Name:      "logged_total",
		Help:      "Total knowledge gaps created or incremented",
	}, []string{"outcome"})
)

// ObserveTroubleshoot records the terminal route of one request.
func ObserveTroubleshoot(route, vendor string, confidence, seconds float64) {
	troubleshootTotal.WithLabelValues(route, vendor).Inc()
	troubleshootConfidence.WithLabelValues(route).Observe(confidence)
	troubleshootLatency.WithLabelValues(route).Observe(seconds)
}

// ObserveProviderError records an upstream provider failure.
func ObserveProviderError(provider, kind string) {
	providerErrors.WithLabelValues(provider, kind).Inc()
}

// ObserveGapLogged records a gap write.
func ObserveGapLogged(created bool) {
	outcome := "incremented"
	if created {
		outcome = "created"
	}
	gapsLogged.WithLabelValues(outcome).Inc()
}
