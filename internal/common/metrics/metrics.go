// internal/common/metrics/metrics.go
package metrics

import (
	"strconv"

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

	TelehealthTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telehealth_turns_total",
			Help: "Telehealth turns processed, by outcome",
		},
		[]string{"outcome"},
	)

	TelehealthRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telehealth_retries_total",
			Help: "Regenerations triggered by a low evaluation, by which attempt was kept",
		},
		[]string{"selected"},
	)

	EvaluationScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telehealth_evaluation_score",
			Help:    "Evaluation scores of returned responses, by criterion",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"criterion"},
	)

	BackendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telehealth_backend_failures_total",
			Help: "Evidence backend calls that failed and were skipped",
		},
		[]string{"backend"},
	)

	EvidenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telehealth_evidence_cache_lookups_total",
			Help: "Evidence cache lookups, by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route and status",
		},
		[]string{"route", "status"},
	)
)

// ObserveEvaluation records every criterion plus the overall score.
func ObserveEvaluation(byCriterion map[string]float64, overall float64) {
	for name, v := range byCriterion {
		EvaluationScore.WithLabelValues(name).Observe(v)
	}
	EvaluationScore.WithLabelValues("overall").Observe(overall)
}

// ObserveHTTP counts one served request.
func ObserveHTTP(route string, status int) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
