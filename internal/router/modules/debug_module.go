package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DebugModule exposes expvar at /debug/vars and Prometheus at /metrics.
type DebugModule struct {
	Limit gin.HandlerFunc
}

func NewDebugModule(limit gin.HandlerFunc) *DebugModule { return &DebugModule{Limit: limit} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	metrics := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
	rg.GET("/debug/vars", m.Limit, gin.WrapH(expvar.Handler()))
	rg.GET("/metrics", m.Limit, gin.WrapH(metrics))
}
