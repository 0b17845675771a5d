package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal HTTP 请求总数。
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarttasks_http_requests_total",
		Help: "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration HTTP 请求耗时。
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smarttasks_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AnalysisTotal 顾问分析次数，按结果区分。
	AnalysisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarttasks_analysis_total",
		Help: "Decision advisor calls by result.",
	}, []string{"result"})

	// AnalysisDuration 单次分析耗时（包含模型调用）。
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smarttasks_analysis_duration_seconds",
		Help:    "Decision advisor latency in seconds.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// EmailSendTotal 验证邮件发送次数。
	EmailSendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarttasks_email_send_total",
		Help: "Verification emails sent by provider and result.",
	}, []string{"provider", "result"})

	// RateLimitRejectedTotal 被限流拒绝的请求数。
	RateLimitRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarttasks_ratelimit_rejected_total",
		Help: "Requests rejected by the rate limiter.",
	}, []string{"scope"})
)

var initOnce sync.Once

// InitMetrics 预先创建标签序列，使面板在首个事件前显示 0。
func InitMetrics() {
	initOnce.Do(func() {
		for _, result := range []string{"ok", "parse_error", "provider_error", "not_configured"} {
			AnalysisTotal.WithLabelValues(result)
		}
		for _, provider := range []string{"resend", "smtp"} {
			EmailSendTotal.WithLabelValues(provider, "ok")
			EmailSendTotal.WithLabelValues(provider, "error")
		}
		for _, scope := range []string{"auth", "analyze"} {
			RateLimitRejectedTotal.WithLabelValues(scope)
		}
	})
}
