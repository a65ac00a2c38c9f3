package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeForbidden = "not_admin"
	OutcomeError     = "error"
)

// PrometheusCollector is safe to use through a nil pointer; every method is
// then a no-op.
type PrometheusCollector struct {
	loginAttempts  *prometheus.CounterVec
	uploadGrants   *prometheus.CounterVec
	videoMutations *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the service metrics with reg. Pass
// prometheus.DefaultRegisterer to expose them on /metrics.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidshare_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),

		uploadGrants: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidshare_upload_grants_total",
			Help: "Presigned upload requests by file type and outcome",
		}, []string{"file_type", "outcome"}),

		videoMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidshare_video_mutations_total",
			Help: "Video create, update and delete operations by outcome",
		}, []string{"action", "outcome"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidshare_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidshare_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
	}
}

func (p *PrometheusCollector) RecordLogin(outcome string) {
	if p == nil {
		return
	}
	p.loginAttempts.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) RecordUploadGrant(fileType, outcome string) {
	if p == nil {
		return
	}
	switch fileType {
	case "", "video":
		fileType = "video"
	case "thumbnail":
	default:
		fileType = "other"
	}
	p.uploadGrants.WithLabelValues(fileType, outcome).Inc()
}

func (p *PrometheusCollector) RecordVideoMutation(action, outcome string) {
	if p == nil {
		return
	}
	p.videoMutations.WithLabelValues(action, outcome).Inc()
}

func (p *PrometheusCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if p == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
