// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loan_worker_jobs_active",
			Help: "Jobs currently being processed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "loan_worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WizardStepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_wizard_step_transitions_total",
			Help: "Wizard transitions by source step and outcome",
		},
		[]string{"step", "outcome"},
	)

	CompletenessScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_application_completeness_score",
			Help:    "Completeness scores computed for loan applications",
			Buckets: []float64{0, 30, 33, 60, 75, 90, 100},
		},
		[]string{"product_type"},
	)

	GuarantorDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_guarantor_decisions_total",
			Help: "Guarantor decisions by decision and outcome",
		},
		[]string{"decision", "outcome"},
	)

	ProductCatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_product_catalog_lookups_total",
			Help: "Product catalog loads by source (memory, cache, origin)",
		},
		[]string{"source"},
	)
)
