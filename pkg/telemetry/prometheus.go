package telemetry

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	inFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		},
	)

	registerOnce sync.Once
)

func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests)
		prometheus.MustRegister(httpDuration)
		prometheus.MustRegister(inFlightRequests)
	})
}

// PrometheusMiddleware registra contagem e latência por rota (template do gin, não o path cru)
func PrometheusMiddleware() gin.HandlerFunc {
	registerMetrics()

	return func(c *gin.Context) {
		start := time.Now()

		inFlightRequests.Inc()
		defer inFlightRequests.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		httpDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func MetricsHandler() gin.HandlerFunc {
	registerMetrics()
	return gin.WrapH(promhttp.Handler())
}
