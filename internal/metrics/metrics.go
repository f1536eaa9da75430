// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geopulse_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geopulse_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	regenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geopulse_regeneration_duration_seconds",
		Help:    "Histogram of timeline regeneration latencies.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})

	segmentsProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geopulse_segments_produced_total",
		Help: "Total number of segments written by regeneration, by kind.",
	}, []string{"kind"})

	timelineFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geopulse_timeline_segment_fetches_total",
		Help: "Total number of upstream segment fetches issued by the timeline assembler.",
	})

	timelineCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geopulse_timeline_coalesced_requests_total",
		Help: "Total number of timeline requests served by an in-flight identical request.",
	})
)

// Middleware records request count and latency labelled by the matched gin route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRegeneration records one regeneration run
func ObserveRegeneration(status string, start time.Time) {
	regenerationDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// AddSegments counts segments of one kind written by regeneration
func AddSegments(kind string, n int) {
	segmentsProduced.WithLabelValues(kind).Add(float64(n))
}

// IncTimelineFetch counts one upstream fetch of the timeline assembler
func IncTimelineFetch() {
	timelineFetches.Inc()
}

// IncTimelineCoalesced counts a request that shared another request's fetch
func IncTimelineCoalesced() {
	timelineCoalesced.Inc()
}
