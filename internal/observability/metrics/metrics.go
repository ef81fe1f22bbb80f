package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "netolight_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	readingsAccepted prometheus.Counter
	readingsRejected *prometheus.CounterVec

	ingestBatchTotal   *prometheus.CounterVec
	ingestBatchLatency *prometheus.HistogramVec

	rollupRows  *prometheus.CounterVec
	passTotal   *prometheus.CounterVec
	passLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		readingsAccepted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_accepted_total",
				Help: "Total readings accepted into storage",
			},
		)
		readingsRejected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_rejected_total",
				Help: "Total readings rejected by reason",
			},
			[]string{"reason"},
		)

		ingestBatchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_batches_total",
				Help: "Total ingest batches by result",
			},
			[]string{"result"},
		)
		ingestBatchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_batch_latency_seconds",
				Help:    "Ingest batch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		rollupRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rollup_rows_total",
				Help: "Total rollup rows written by resolution",
			},
			[]string{"resolution"},
		)
		passTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aggregation_passes_total",
				Help: "Total aggregation passes by result",
			},
			[]string{"result"},
		)
		passLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aggregation_pass_latency_seconds",
				Help:    "Aggregation pass latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			readingsAccepted,
			readingsRejected,
			ingestBatchTotal,
			ingestBatchLatency,
			rollupRows,
			passTotal,
			passLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncReadingAccepted increments the accepted readings counter.
func IncReadingAccepted() {
	if readingsAccepted != nil {
		readingsAccepted.Inc()
	}
}

// IncReadingRejected increments the rejected readings counter.
func IncReadingRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if readingsRejected != nil {
		readingsRejected.WithLabelValues(reason).Inc()
	}
}

// ObserveIngestBatch records ingest batch duration and result.
func ObserveIngestBatch(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestBatchTotal != nil {
		ingestBatchTotal.WithLabelValues(result).Inc()
	}
	if ingestBatchLatency != nil {
		ingestBatchLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddRollupRows increments the written rollup rows counter by count.
func AddRollupRows(resolution string, count int) {
	if count <= 0 {
		return
	}
	if rollupRows != nil {
		rollupRows.WithLabelValues(resolution).Add(float64(count))
	}
}

// ObserveAggregationPass records pass latency and result.
func ObserveAggregationPass(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if passTotal != nil {
		passTotal.WithLabelValues(result).Inc()
	}
	if passLatency != nil {
		passLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
