package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "giftledger"

type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Ledger Metrics
	LedgerOperations     *prometheus.CounterVec
	LedgerAmount         *prometheus.CounterVec
	LedgerDuration       *prometheus.HistogramVec
	DataIntegrityErrors  *prometheus.CounterVec
	ReconciliationFixes  *prometheus.CounterVec
	ReconciliationRuns   *prometheus.CounterVec
	SettlementReportTime prometheus.Histogram

	// Database Metrics
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitCount        prometheus.Gauge

	// System Metrics
	ServiceUptime    prometheus.Gauge
	Goroutines       prometheus.Gauge
	MemoryUsageBytes *prometheus.GaugeVec

	// Validation Metrics
	ValidationErrors *prometheus.CounterVec
}

// NewMetrics registers every collector on reg. Production passes
// prometheus.DefaultRegisterer; tests pass a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		HTTPResponseSizeBytes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   []float64{100, 1000, 10_000, 100_000, 1_000_000},
			},
			[]string{"method", "path", "status_code"},
		),

		LedgerOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Ledger operations by type and result code",
			},
			[]string{"operation", "code"},
		),
		LedgerAmount: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_amount_total",
				Help:      "Sum of minor units moved by successful ledger operations",
			},
			[]string{"operation"},
		),
		LedgerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_operation_duration_seconds",
				Help:      "Duration of ledger operations including the database transaction",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
		DataIntegrityErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "data_integrity_errors_total",
				Help:      "Ledger states that indicate prior corruption",
			},
			[]string{"code"},
		),
		ReconciliationFixes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliation_fixes_total",
				Help:      "Transactions repaired or flagged by reconciliation",
			},
			[]string{"category", "mode"},
		),
		ReconciliationRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliation_runs_total",
				Help:      "Reconciliation runs by mode and status",
			},
			[]string{"mode", "status"},
		),
		SettlementReportTime: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "settlement_report_duration_seconds",
				Help:      "Time to aggregate a settlement report",
				Buckets:   prometheus.DefBuckets,
			},
		),

		DBConnectionsInUse: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_in_use",
				Help:      "Number of database connections currently in use",
			},
		),
		DBConnectionsIdle: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections_idle",
				Help:      "Number of idle database connections",
			},
		),
		DBWaitCount: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_wait_count",
				Help:      "Total number of connections waited for",
			},
		),

		ServiceUptime: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_uptime_seconds",
				Help:      "Service uptime in seconds",
			},
		),
		Goroutines: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "goroutines",
				Help:      "Number of goroutines currently running",
			},
		),
		MemoryUsageBytes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "memory_usage_bytes",
				Help:      "Memory usage in bytes",
			},
			[]string{"type"},
		),

		ValidationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_errors_total",
				Help:      "Total number of validation errors",
			},
			[]string{"field", "tag"},
		),
	}
}

// --- Recording Methods ---

func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration.Seconds())
	m.HTTPResponseSizeBytes.WithLabelValues(method, path, statusCode).Observe(float64(responseSize))
}

// RecordLedgerOperation counts one operation; code is "success" or the
// service error code it failed with.
func (m *Metrics) RecordLedgerOperation(operation, code string, amount int64, duration time.Duration) {
	m.LedgerOperations.WithLabelValues(operation, code).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if code == "success" && amount > 0 {
		m.LedgerAmount.WithLabelValues(operation).Add(float64(amount))
	}
}

func (m *Metrics) RecordDataIntegrityError(code string) {
	m.DataIntegrityErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordReconciliation(mode, status string, fixes map[string]int) {
	m.ReconciliationRuns.WithLabelValues(mode, status).Inc()
	for category, n := range fixes {
		m.ReconciliationFixes.WithLabelValues(category, mode).Add(float64(n))
	}
}

func (m *Metrics) RecordSettlementReport(duration time.Duration) {
	m.SettlementReportTime.Observe(duration.Seconds())
}

func (m *Metrics) RecordValidationError(field, tag string) {
	m.ValidationErrors.WithLabelValues(field, tag).Inc()
}

// UpdateSystemMetrics updates system-level metrics (goroutines, uptime, memory).
func (m *Metrics) UpdateSystemMetrics(uptime time.Duration, memStats *runtime.MemStats) {
	m.ServiceUptime.Set(uptime.Seconds())
	m.Goroutines.Set(float64(runtime.NumGoroutine()))

	m.MemoryUsageBytes.WithLabelValues("alloc").Set(float64(memStats.Alloc))
	m.MemoryUsageBytes.WithLabelValues("sys").Set(float64(memStats.Sys))
	m.MemoryUsageBytes.WithLabelValues("heap_alloc").Set(float64(memStats.HeapAlloc))
	m.MemoryUsageBytes.WithLabelValues("heap_inuse").Set(float64(memStats.HeapInuse))
}
