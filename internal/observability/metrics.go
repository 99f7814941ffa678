package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	answerSubmissions  *prometheus.CounterVec
	levelEvaluations   *prometheus.CounterVec
	uploadRejected     *prometheus.CounterVec
	uploadLatency      prometheus.Histogram
	notificationsSent  *prometheus.CounterVec
	streamClients      *prometheus.GaugeVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		answerSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_answer_submissions_total",
			Help: "Answer submissions grouped by exam kind and outcome.",
		}, []string{"kind", "outcome"})

		levelEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_level_evaluations_total",
			Help: "Result aggregations grouped by the computed level flag.",
		}, []string{"up_to_level"})

		uploadRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_upload_rejected_total",
			Help: "Uploads rejected before storage, by reason.",
		}, []string{"reason"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exam_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		notificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_notifications_sent_total",
			Help: "Notifications delivered to students, by type and origin.",
		}, []string{"type", "origin"})

		streamClients = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "exam_notification_stream_clients",
			Help: "Connected notification stream clients, by transport.",
		}, []string{"transport"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, answerSubmissions, levelEvaluations, uploadRejected, uploadLatency, notificationsSent, streamClients)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// AnswerSubmissions exposes the answer submission counter.
func AnswerSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return answerSubmissions
}

// LevelEvaluations exposes the level evaluation counter.
func LevelEvaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return levelEvaluations
}

// UploadRejected exposes the rejected upload counter.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejected
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// NotificationsSent exposes the notification counter.
func NotificationsSent() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsSent
}

// StreamClients exposes the connected stream client gauge.
func StreamClients() *prometheus.GaugeVec {
	RegisterMetrics()
	return streamClients
}
