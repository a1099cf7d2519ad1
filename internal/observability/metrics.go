package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	httpRequestsTotal         *prometheus.CounterVec
	httpLatencySeconds        *prometheus.HistogramVec
	httpErrorsTotal           *prometheus.CounterVec
	transitionsTotal          *prometheus.CounterVec
	transitionRejectionsTotal *prometheus.CounterVec
	eligibilityFailuresTotal  *prometheus.CounterVec
	expiredApplicationsTotal  prometheus.Counter
	recommendationCacheTotal  *prometheus.CounterVec
	eventsPublishedTotal      *prometheus.CounterVec
	disbursementsTotal        *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and worker.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarship_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scholarship_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarship_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "application_transitions_total",
			Help: "Committed application status transitions.",
		}, []string{"from", "to"})

		transitionRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "application_transition_rejections_total",
			Help: "Rejected application status transitions by reason.",
		}, []string{"to", "reason"})

		eligibilityFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eligibility_failures_total",
			Help: "Failed eligibility criteria observed on submission and checks.",
		}, []string{"reason"})

		expiredApplicationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "applications_expired_total",
			Help: "Applications moved to expired by the overdue sweep.",
		})

		recommendationCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_cache_requests_total",
			Help: "Recommendation cache lookups by result.",
		}, []string{"result"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "status_events_published_total",
			Help: "Status change events published by transport and outcome.",
		}, []string{"transport", "outcome"})

		disbursementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "disbursement_transitions_total",
			Help: "Committed disbursement status transitions.",
		}, []string{"from", "to"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			transitionsTotal,
			transitionRejectionsTotal,
			eligibilityFailuresTotal,
			expiredApplicationsTotal,
			recommendationCacheTotal,
			eventsPublishedTotal,
			disbursementsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Transitions counts committed status changes.
func Transitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// TransitionRejections counts refused status changes.
func TransitionRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionRejectionsTotal
}

// EligibilityFailures counts failed criteria by reason code.
func EligibilityFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return eligibilityFailuresTotal
}

// ExpiredApplications counts applications expired by the sweep.
func ExpiredApplications() prometheus.Counter {
	RegisterMetrics()
	return expiredApplicationsTotal
}

// RecommendationCache counts cache hits and misses.
func RecommendationCache() *prometheus.CounterVec {
	RegisterMetrics()
	return recommendationCacheTotal
}

// EventsPublished counts status event deliveries.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// DisbursementTransitions counts committed payout status changes.
func DisbursementTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return disbursementsTotal
}
