// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	CandidateEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_evaluations_total",
			Help: "Candidates evaluated, by recommendation tier",
		},
		[]string{"recommendation"},
	)

	CandidateOverallScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_overall_score",
			Help:    "Distribution of overall matching scores",
			Buckets: []float64{0.2, 0.4, 0.6, 0.8, 1.0},
		},
	)

	BatchCandidateFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_candidate_failures_total",
			Help: "Candidates whose evaluation failed inside a batch",
		},
	)

	FilterOptionsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_options_cache_lookups_total",
			Help: "Filter option cache lookups by result",
		},
		[]string{"result"},
	)
)

// ObserveEvaluation records one scored candidate.
func ObserveEvaluation(tier string, overall float64) {
	CandidateEvaluations.WithLabelValues(tier).Inc()
	CandidateOverallScore.Observe(overall)
}
