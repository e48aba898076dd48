package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-manager/pkg/metrics"
)

// Metrics records request count and latency per matched route.
func Metrics() gin.HandlerFunc {
	m := metrics.Get()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
