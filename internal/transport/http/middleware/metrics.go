package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API 请求指标；标签只用路由模板，任务 id 不进入标签
var (
	apiRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "API requests by route, method and status code.",
	}, []string{"path", "method", "status"})

	apiLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "API request latency by route and method.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"path", "method"})

	apiInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "API requests currently being served.",
	})
)

func init() { prometheus.MustRegister(apiRequests, apiLatency, apiInFlight) }

// Metrics records one sample per API request. Buckets top out at the default
// request timeout.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiInFlight.Inc()
		defer apiInFlight.Dec()

		start := time.Now()
		c.Next()

		route, method := routeOf(c), c.Request.Method
		apiRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		apiLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler serves the default registry in the Prometheus text format.
func MetricsHandler() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
