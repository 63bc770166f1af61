package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocfinder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tocfinder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Scan metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocfinder_scans_total",
			Help: "Total number of document scans",
		},
		[]string{"source", "status"}, // source: http, websocket; status: toc, no_toc, error
	)

	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tocfinder_scan_duration_seconds",
			Help:    "Document scan duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		},
		[]string{"source"},
	)

	pagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocfinder_pages_total",
			Help: "Total number of pages examined",
		},
		[]string{"outcome"}, // outcome: toc, regular, error
	)

	pageConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tocfinder_page_confidence",
			Help:    "Classifier confidence of successfully examined pages",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocfinder_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tocfinder_upload_size_bytes",
			Help:    "Size of uploaded documents in bytes",
			Buckets: []float64{100 * 1024, 1024 * 1024, 5 * 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024, 100 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tocfinder_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tocfinder_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

// observePage counts one page record.
func observePage(rec pipeline.PageRecord) {
	switch {
	case rec.Failed():
		pagesTotal.WithLabelValues("error").Inc()
		return
	case rec.IsTOC:
		pagesTotal.WithLabelValues("toc").Inc()
	default:
		pagesTotal.WithLabelValues("regular").Inc()
	}
	pageConfidence.Observe(rec.Confidence)
}

// observeScan records the outcome of one scan.
func observeScan(source string, res *pipeline.Result, err error, seconds float64) {
	scanDuration.WithLabelValues(source).Observe(seconds)
	switch {
	case err != nil:
		scansTotal.WithLabelValues(source, "error").Inc()
	case res.Summary.HasTOC:
		scansTotal.WithLabelValues(source, "toc").Inc()
	default:
		scansTotal.WithLabelValues(source, "no_toc").Inc()
	}
}
