package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the service's Prometheus instruments.
type Metrics struct {
	analysesTotal     *prometheus.CounterVec
	analysisDuration  prometheus.Histogram
	batchRunsTotal    prometheus.Counter
	alertsPublished   prometheus.Counter
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers and returns the service metrics
func New() *Metrics {
	return &Metrics{
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_analyses_total",
				Help: "Total number of portfolio analyses by result",
			},
			[]string{"result"},
		),
		analysisDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analytics_analysis_duration_seconds",
				Help:    "Duration of a single portfolio analysis",
				Buckets: prometheus.DefBuckets,
			},
		),
		batchRunsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_batch_runs_total",
				Help: "Total number of batch analysis runs",
			},
		),
		alertsPublished: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_alerts_published_total",
				Help: "Total number of alerts published to the broker",
			},
		),
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analytics_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordAnalysis records the outcome and duration of one portfolio analysis
func (m *Metrics) RecordAnalysis(result string, duration time.Duration) {
	m.analysesTotal.WithLabelValues(result).Inc()
	m.analysisDuration.Observe(duration.Seconds())
}

// RecordBatchRun records the start of a batch run
func (m *Metrics) RecordBatchRun() {
	m.batchRunsTotal.Inc()
}

// RecordAlerts records alerts published to the broker
func (m *Metrics) RecordAlerts(count int) {
	m.alertsPublished.Add(float64(count))
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
