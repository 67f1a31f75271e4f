// Package middleware provides the HTTP middleware of the media service.
package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string
	// Registerer receives the collectors. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Enabled controls whether metrics collection is active.
	Enabled bool
}

// DefaultHTTPMetricsConfig returns default HTTP metrics configuration.
func DefaultHTTPMetricsConfig() HTTPMetricsConfig {
	return HTTPMetricsConfig{
		Namespace: "uv_media",
		Enabled:   true,
	}
}

type httpMetrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
}

func newHTTPMetrics(cfg HTTPMetricsConfig) (*httpMetrics, error) {
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &httpMetrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http_server",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_class"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http_server",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),
		// Upload bodies reach the gigabyte range
		requestSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http_server",
			Name:      "request_size_bytes",
			Help:      "HTTP request body size distribution in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 8, 8),
		}, []string{"method", "route"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http_server",
			Name:      "response_size_bytes",
			Help:      "HTTP response body size distribution in bytes.",
			Buckets:   prometheus.ExponentialBuckets(128, 8, 8),
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http_server",
			Name:      "active_requests",
			Help:      "Number of currently active HTTP requests.",
		}),
	}

	var err error
	if m.requestTotal, err = registerCollector(reg, m.requestTotal); err != nil {
		return nil, err
	}
	if m.requestDuration, err = registerCollector(reg, m.requestDuration); err != nil {
		return nil, err
	}
	if m.requestSize, err = registerCollector(reg, m.requestSize); err != nil {
		return nil, err
	}
	if m.responseSize, err = registerCollector(reg, m.responseSize); err != nil {
		return nil, err
	}
	if m.activeRequests, err = registerCollector(reg, m.activeRequests); err != nil {
		return nil, err
	}
	return m, nil
}

func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// HTTPMetrics returns a Gin middleware that exports per-route request
// counts, latency, body sizes and in-flight requests to Prometheus.
func HTTPMetrics(cfg HTTPMetricsConfig) (gin.HandlerFunc, error) {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}, nil
	}

	metrics, err := newHTTPMetrics(cfg)
	if err != nil {
		return nil, err
	}
	return httpMetricsMiddleware(metrics), nil
}

func httpMetricsMiddleware(metrics *httpMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestSize := c.Request.ContentLength

		metrics.activeRequests.Inc()
		defer metrics.activeRequests.Dec()

		c.Next()

		route := getRoutePattern(c)
		method := c.Request.Method

		metrics.requestTotal.WithLabelValues(method, route, HTTPMetricsStatusGroup(c.Writer.Status())).Inc()
		metrics.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if requestSize > 0 {
			metrics.requestSize.WithLabelValues(method, route).Observe(float64(requestSize))
		}
		if size := c.Writer.Size(); size > 0 {
			metrics.responseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}

// getRoutePattern returns the matched route pattern (e.g. "/api/v1/media/:id")
// instead of the raw path to keep label cardinality bounded.
func getRoutePattern(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		return "unknown"
	}
	return route
}

// HTTPMetricsStatusGroup groups status codes into classes (2xx, 4xx, 5xx).
func HTTPMetricsStatusGroup(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "other"
	}
}
