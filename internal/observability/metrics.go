package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	submissionOperations  *prometheus.CounterVec
	submissionCreditScore *prometheus.HistogramVec
	evidenceCleanupTotal  *prometheus.CounterVec
	evidenceRejectedTotal *prometheus.CounterVec
	summaryCacheTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_operations_total",
			Help: "Credit submission lifecycle operations by outcome.",
		}, []string{"family", "operation", "outcome"})

		submissionCreditScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "submission_credit_score",
			Help:    "Distribution of computed credit scores.",
			Buckets: []float64{0.5, 1, 2, 3, 5, 10, 20, 50, 150, 200},
		}, []string{"family", "category"})

		evidenceCleanupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_cleanup_total",
			Help: "Evidence files removed after rollback, replacement or record deletion.",
		}, []string{"family", "reason"})

		evidenceRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_rejected_total",
			Help: "Evidence uploads rejected at the boundary.",
		}, []string{"reason"})

		summaryCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credit_summary_cache_total",
			Help: "Credit summary cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionOperations,
			submissionCreditScore,
			evidenceCleanupTotal,
			evidenceRejectedTotal,
			summaryCacheTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SubmissionOperations exposes the lifecycle operation counter.
func SubmissionOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionOperations
}

// SubmissionCreditScore exposes the score histogram.
func SubmissionCreditScore() *prometheus.HistogramVec {
	RegisterMetrics()
	return submissionCreditScore
}

// EvidenceCleanup exposes the evidence cleanup counter.
func EvidenceCleanup() *prometheus.CounterVec {
	RegisterMetrics()
	return evidenceCleanupTotal
}

// EvidenceRejected exposes the boundary rejection counter.
func EvidenceRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return evidenceRejectedTotal
}

// SummaryCache exposes the summary cache counter.
func SummaryCache() *prometheus.CounterVec {
	RegisterMetrics()
	return summaryCacheTotal
}
