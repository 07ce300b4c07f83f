package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanchain_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cleanchain_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanchain_submissions_total",
		Help: "Total anchored submissions by risk channel.",
	}, []string{"channel"})

	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanchain_verifications_total",
		Help: "Total verification runs by outcome.",
	}, []string{"outcome"})

	documentBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cleanchain_document_bytes",
		Help:    "Size of anchored documents in bytes.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 10),
	})

	healthProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleanchain_health_probes_total",
		Help: "Total dependency health probes by probe name and result.",
	}, []string{"probe", "result"})

	ledgerEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cleanchain_ledger_entries_total",
		Help: "Total ledger records committed (excluding idempotent reuses).",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		requestsTotal.WithLabelValues(method, path, status).Inc()
		requestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordSubmission records one anchored submission.
func RecordSubmission(channel string, docBytes int, reused bool) {
	submissionsTotal.WithLabelValues(channel).Inc()
	documentBytes.Observe(float64(docBytes))
	if !reused {
		ledgerEntriesTotal.Inc()
	}
}

// RecordVerification records one verification run.
func RecordVerification(outcome string) {
	verificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordHealthProbe records a dependency probe result.
func RecordHealthProbe(probe string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	healthProbesTotal.WithLabelValues(probe, result).Inc()
}
