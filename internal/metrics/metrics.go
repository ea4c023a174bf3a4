// Package metrics exposes Prometheus instruments for the chat pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// chatRequests counts chat requests by status code and branch
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_chat_requests_total",
		Help: "Total chat requests by status code and branch",
	}, []string{"status", "branch"})

	// chatDuration tracks end-to-end chat latency
	chatDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinic_chat_request_duration_seconds",
		Help:    "Chat request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 11), // 50ms to ~51s
	}, []string{"branch"})

	// generationAttempts counts backend calls by outcome
	generationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_generation_attempts_total",
		Help: "Generation backend attempts by outcome",
	}, []string{"outcome"})

	// persistenceWrites counts background writes by kind and result
	persistenceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_persistence_writes_total",
		Help: "Background persistence writes by kind and result",
	}, []string{"kind", "result"})

	// rateLimited counts requests rejected by the rate limiter
	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clinic_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

// Branch labels
const (
	BranchNormal    = "normal"
	BranchEmergency = "emergency"
	BranchRejected  = "rejected"
)

// ObserveChat records one finished chat request
func ObserveChat(status int, branch string, elapsed time.Duration) {
	chatRequests.WithLabelValues(strconv.Itoa(status), branch).Inc()
	chatDuration.WithLabelValues(branch).Observe(elapsed.Seconds())
}

// ObserveGeneration records one backend attempt outcome
func ObserveGeneration(outcome string) {
	generationAttempts.WithLabelValues(outcome).Inc()
}

// ObservePersistence records one background write result
func ObservePersistence(kind, result string) {
	persistenceWrites.WithLabelValues(kind, result).Inc()
}

// ObserveRateLimited records a rejected request
func ObserveRateLimited() {
	rateLimited.Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
