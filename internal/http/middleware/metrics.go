package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat has no status label.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight (currently processing) requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpRespSize buckets span a single game document up to a full
	// catalog page.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10, // 200B..5KiB
				10 << 10, 25 << 10, 50 << 10, // 10..50KiB
				100 << 10, 250 << 10, 500 << 10, // 100..500KiB
				1 << 20, 2 << 20, 5 << 20, // 1..5MiB
			},
		},
		[]string{"method", "path"},
	)

	// rateLimited counts requests rejected with 429, by limiter name.
	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by a rate limiter.",
		},
		[]string{"limiter"},
	)

	// panicsTotal counts panics turned into 500 by Recovery, by route.
	panicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_total",
			Help: "Total number of recovered handler panics.",
		},
		[]string{"path"},
	)
)

// unmatchedPath labels requests that matched no registered route.
const unmatchedPath = "unmatched"

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, rateLimited, panicsTotal)
}

// Metrics records http_requests_total, http_request_duration_seconds,
// http_requests_inflight and http_response_size_bytes. The path label is the
// registered route so /api/games/:id stays one series; requests that matched
// no route (404s and the storefront fallback) share "unmatched".
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		size := c.Writer.Size()

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
		// Size is -1 when nothing was written.
		if size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
