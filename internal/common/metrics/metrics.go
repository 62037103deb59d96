// internal/common/metrics/metrics.go
package metrics

import (
	"time"

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

	MatchCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_candidates_ranked",
			Help:    "Number of legs ranked per request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"source"},
	)

	MatchTopScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_top_composite_score",
			Help:    "Composite score of the best ranked leg",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ProfileLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crew_profile_lookups_total",
			Help: "Crew profile lookups by the tier that answered",
		},
		[]string{"tier"},
	)

	LegSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "leg_search_duration_seconds",
			Help: "Elasticsearch leg search latency",
		},
	)
)

// ObserveJob records the outcome of one worker job. An empty errorCode
// counts as completed.
func ObserveJob(taskType string, started time.Time, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(started).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
