package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// bulk import engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	importJobs      prometheus.Gauge
	chunkDuration   prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Total bulk import rows processed by outcome",
	}, []string{"outcome"})

	importJobs := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "import_jobs_active",
		Help: "Number of import jobs currently being processed",
	})

	chunkDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_chunk_duration_seconds",
		Help:    "Duration of one import chunk including its persist",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, importRows, importJobs, chunkDuration, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		importRows:      importRows,
		importJobs:      importJobs,
		chunkDuration:   chunkDuration,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// RegisterQueueDepth exposes a queue's buffered backlog as a gauge, sampled
// at scrape time.
func (m *MetricsService) RegisterQueueDepth(queue string, depth func() int) {
	if m == nil || depth == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "import_queue_depth",
		Help:        "Jobs waiting in the in-memory import queue",
		ConstLabels: prometheus.Labels{"queue": queue},
	}, func() float64 {
		return float64(depth())
	}))
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordImportRows adds to the per-outcome row counters.
func (m *MetricsService) RecordImportRows(succeeded, failed int) {
	if m == nil {
		return
	}
	if succeeded > 0 {
		m.importRows.WithLabelValues("success").Add(float64(succeeded))
	}
	if failed > 0 {
		m.importRows.WithLabelValues("failed").Add(float64(failed))
	}
}

// ImportJobStarted bumps the active job gauge.
func (m *MetricsService) ImportJobStarted() {
	if m == nil {
		return
	}
	m.importJobs.Inc()
}

// ImportJobFinished releases the active job gauge.
func (m *MetricsService) ImportJobFinished() {
	if m == nil {
		return
	}
	m.importJobs.Dec()
}

// ObserveChunk records the duration of one processed chunk.
func (m *MetricsService) ObserveChunk(duration time.Duration) {
	if m == nil {
		return
	}
	m.chunkDuration.Observe(duration.Seconds())
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
