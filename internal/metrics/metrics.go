// Package metrics holds the Prometheus instruments for the API and the jobs.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for HTTP traffic and scheduled jobs.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	JobRuns        *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	JobItemErrors  *prometheus.CounterVec
	FixedPostings  prometheus.Counter
	Notifications  *prometheus.CounterVec
	LockContention *prometheus.CounterVec
}

// New registers all metrics with reg. Each registry accepts one Metrics.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finanzas_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finanzas_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		JobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finanzas_job_runs_total",
			Help: "Scheduled job runs by job and outcome",
		}, []string{"job", "status"}),

		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finanzas_job_duration_seconds",
			Help:    "Duration of scheduled job runs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),

		JobItemErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finanzas_job_item_errors_total",
			Help: "Items a scheduled job failed to process",
		}, []string{"job"}),

		FixedPostings: factory.NewCounter(prometheus.CounterOpts{
			Name: "finanzas_fixed_expense_postings_total",
			Help: "Transactions posted from fixed expense schedules",
		}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finanzas_notifications_created_total",
			Help: "Notifications written by jobs, by type",
		}, []string{"type"}),

		LockContention: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finanzas_job_lock_contention_total",
			Help: "Job runs skipped because another run held the lock",
		}, []string{"job"}),
	}
}

// NewDefault registers the metrics with the global Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveJob records the outcome of a job run.
func (m *Metrics) ObserveJob(job, status string, failedItems int, d time.Duration) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(d.Seconds())
	if failedItems > 0 {
		m.JobItemErrors.WithLabelValues(job).Add(float64(failedItems))
	}
}

// IncrementPostings adds n fixed expense postings.
func (m *Metrics) IncrementPostings(n int) {
	if m != nil && n > 0 {
		m.FixedPostings.Add(float64(n))
	}
}

// IncrementNotification counts a notification written by a job.
func (m *Metrics) IncrementNotification(notificationType string) {
	if m != nil {
		m.Notifications.WithLabelValues(notificationType).Inc()
	}
}

// IncrementLockContention counts a run skipped on a held lock.
func (m *Metrics) IncrementLockContention(job string) {
	if m != nil {
		m.LockContention.WithLabelValues(job).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	h := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
