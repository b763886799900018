package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "dnspulse_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	queriesRecorded *prometheus.CounterVec

	graphRefreshTotal   *prometheus.CounterVec
	graphRefreshLatency *prometheus.HistogramVec
	curvePeak           prometheus.Gauge
	curveEmpty          prometheus.Gauge

	streamClients prometheus.Gauge

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		queriesRecorded = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "queries_recorded_total",
				Help: "Total DNS queries recorded by status",
			},
			[]string{"status"},
		)

		graphRefreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "graph_refresh_total",
				Help: "Total graph refreshes by result",
			},
			[]string{"result"},
		)
		graphRefreshLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "graph_refresh_latency_seconds",
				Help:    "Graph refresh latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		curvePeak = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "curve_peak",
				Help: "Current display scale of the density curve",
			},
		)
		curveEmpty = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "curve_empty",
				Help: "1 when the density curve is all zero, else 0",
			},
		)

		streamClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "stream_clients",
				Help: "Connected graph stream clients",
			},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total activity report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Activity report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			queriesRecorded,
			graphRefreshTotal,
			graphRefreshLatency,
			curvePeak,
			curveEmpty,
			streamClients,
			reportExportTotal,
			reportExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// IncQueryRecorded increments the recorded-query counter.
func IncQueryRecorded(status string) {
	if status == "" {
		status = "unknown"
	}
	if queriesRecorded != nil {
		queriesRecorded.WithLabelValues(status).Inc()
	}
}

// ObserveGraphRefresh records refresh latency and result.
func ObserveGraphRefresh(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if graphRefreshTotal != nil {
		graphRefreshTotal.WithLabelValues(result).Inc()
	}
	if graphRefreshLatency != nil {
		graphRefreshLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// SetCurve publishes the latest curve peak and emptiness.
func SetCurve(peak float64, empty bool) {
	if curvePeak != nil {
		curvePeak.Set(peak)
	}
	if curveEmpty != nil {
		if empty {
			curveEmpty.Set(1)
		} else {
			curveEmpty.Set(0)
		}
	}
}

// IncStreamClients tracks a newly connected stream client.
func IncStreamClients() {
	if streamClients != nil {
		streamClients.Inc()
	}
}

// DecStreamClients tracks a disconnected stream client.
func DecStreamClients() {
	if streamClients != nil {
		streamClients.Dec()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	IngestResultSuccess = resultSuccess
	IngestResultError   = resultError
)
