// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	NotificationsTotal *prometheus.CounterVec
	RateLimitedTotal   *prometheus.CounterVec
}

// Get returns the process-wide collectors, registering them on first use.
//
// Metrics:
//   - http_requests_total{method,route,status}
//   - http_request_duration_seconds{method,route}
//   - notifications_total{kind,result}
//   - rate_limited_total{scope}
func Get() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests handled",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
				},
				[]string{"method", "route"},
			),
			NotificationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_total",
					Help: "Total number of notification attempts",
				},
				[]string{"kind", "result"}, // result: "sent", "queued", "skipped", "failed"
			),
			RateLimitedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limited_total",
					Help: "Total number of requests rejected by the rate limiter",
				},
				[]string{"scope"},
			),
		}
	})
	return globalMetrics
}

// Notification records the outcome of one notification attempt.
func (m *Metrics) Notification(kind, result string) {
	m.NotificationsTotal.WithLabelValues(kind, result).Inc()
}
