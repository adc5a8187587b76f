package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptdeck_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"status", "route"})
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptdeck_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptdeck_executions_total",
		Help: "Prompt executions by provider and outcome",
	}, []string{"provider", "outcome"})
	ExecutionTokens = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptdeck_execution_tokens",
		Help:    "Total tokens per recorded execution",
		Buckets: prometheus.ExponentialBuckets(16, 2, 14),
	}, []string{"provider"})
	ExecutionCostTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptdeck_execution_cost_total",
		Help: "Accumulated execution cost by currency",
	}, []string{"currency"})
	ProviderLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptdeck_provider_latency_seconds",
		Help:    "Latency of provider calls in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})
	QuotaRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptdeck_quota_rejections_total",
		Help: "Executions rejected because the token quota was exhausted",
	})
	DeadLettersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptdeck_execution_dead_letters_total",
		Help: "Executions whose recording transaction failed",
	})
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptdeck_webhook_events_total",
		Help: "Payment webhook events by type and outcome",
	}, []string{"type", "outcome"})
	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptdeck_emails_sent_total",
		Help: "Emails dispatched by status",
	}, []string{"status"})
)

// records request count and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(status, route).Inc()
		HTTPRequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// exposes Prometheus metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
