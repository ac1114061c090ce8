// Package metrics holds the Prometheus collectors exposed on /metrics.
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
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
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

	ForecastCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_cache_lookups_total",
			Help: "Forecast cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	// PriceModelActive is 1 when the trained regressor serves predictions.
	PriceModelActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_model_active",
			Help: "Whether the trained price model is active (1) or the formula fallback is used (0)",
		},
	)

	PriceModelRSquared = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_model_training_r_squared",
			Help: "Coefficient of determination of the price model on its training corpus",
		},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mandi_recommendations_total",
			Help: "Recommendations produced, split by whether fallback candidates were used",
		},
		[]string{"crop", "fallback"},
	)

	SMSNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_notifications_total",
			Help: "SMS notifications by outcome",
		},
		[]string{"status"},
	)
)
