// Package metrics exposes the prometheus collectors of the valuation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carvaluator"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// ProviderRequests counts upstream provider calls by outcome.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Total number of upstream valuation provider requests",
	}, []string{"provider", "outcome"})

	// ProviderRequestDuration observes upstream provider latency.
	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of upstream valuation provider requests",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"provider"})

	// FailoverActive is 1 while the primary provider is bypassed.
	FailoverActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "failover_active",
		Help:      "Whether the primary provider is currently bypassed (1) or not (0)",
	})

	// FailoverTransitions counts failover mode changes by target mode.
	FailoverTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "failover_transitions_total",
		Help:      "Total number of failover mode transitions",
	}, []string{"to"})

	// CacheHits counts valuation lookups served from a cache layer.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "valuation_cache_hits_total",
		Help:      "Valuation lookups by the layer that served them (local, redis, mysql)",
	}, []string{"layer"})
)

// ObserveProviderCall records the outcome and latency of one provider request.
func ObserveProviderCall(provider string, success bool, d time.Duration) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(d.Seconds())
}
