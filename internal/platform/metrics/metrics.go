// Package metrics exposes the engine's Prometheus instrumentation: HTTP
// request metrics plus counters and histograms for the four engine
// operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elimu_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "elimu_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	scheduleGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elimu_schedule_generations_total",
		Help: "Count of schedule generation passes by result",
	}, []string{"result"})

	rankingRecomputes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "elimu_ranking_recompute_duration_seconds",
		Help:    "Duration of ranking recompute passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope", "result"})

	promotionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elimu_promotion_decisions_total",
		Help: "Count of promotion decisions by outcome",
	}, []string{"outcome"})

	tenancyResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elimu_tenancy_resolutions_total",
		Help: "Count of tenant resolutions by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveScheduleGeneration increments the generation counter for the
// given result ("ok", "invalid_config", "shrink", "error").
func ObserveScheduleGeneration(result string) {
	scheduleGenerations.WithLabelValues(result).Inc()
}

// ObserveRankingRecompute records the duration of a recompute pass.
// scope is "subject" or "term".
func ObserveRankingRecompute(scope, result string, duration time.Duration) {
	rankingRecomputes.WithLabelValues(scope, result).Observe(duration.Seconds())
}

// ObservePromotionDecision increments the decision counter for the
// given outcome.
func ObservePromotionDecision(outcome string) {
	promotionDecisions.WithLabelValues(outcome).Inc()
}

// ObserveTenancyResolution increments the resolution counter for the
// given result ("ok", "unknown_account", "cycle", "error").
func ObserveTenancyResolution(result string) {
	tenancyResolutions.WithLabelValues(result).Inc()
}
