// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package instruments:
// - Ingest API request handling and validation outcomes
// - Event bus publish/consume/commit behaviour across both backends
// - OLAP and NoSQL ETL batch processing and load outcomes
// - Spill file usage
// - Uncaught error webhook delivery

var (
	// Ingest API metrics.
	IngestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_requests_total",
			Help: "Total number of ingest API requests by event type and outcome",
		},
		[]string{"event_type", "status"}, // status: "accepted", "rejected", "error"
	)

	IngestRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_request_duration_seconds",
			Help:    "Duration of ingest API request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	IngestValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_validation_errors_total",
			Help: "Total number of payload validation failures by event subtype and field",
		},
		[]string{"subtype", "field"},
	)

	IngestAuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_auth_failures_total",
			Help: "Total number of ingest requests rejected by JWT verification",
		},
		[]string{"reason"}, // "missing_token", "invalid_signature", "expired", "bad_audience"
	)

	// Event bus metrics, shared by the log (NATS JetStream) and broker
	// (AMQP) adapters.
	BusPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_publish_total",
			Help: "Total number of bus publish attempts by backend, topic, and outcome",
		},
		[]string{"backend", "topic", "outcome"}, // outcome: "success", "failure"
	)

	BusConsumeBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bus_consume_batch_size",
			Help:    "Size of batches pulled from the bus per Consume call",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"backend", "consumer_group"},
	)

	BusCommitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bus_commit_duration_seconds",
			Help:    "Duration of bus commit (ack) calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	BusCircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bus_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"backend"},
	)

	// ETL metrics, shared by the OLAP and NoSQL loops (distinguished by
	// the "pipeline" label).
	ETLBatchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_batches_processed_total",
			Help: "Total number of ETL batches processed by pipeline and outcome",
		},
		[]string{"pipeline", "outcome"}, // pipeline: "olap", "nosql"; outcome: "loaded", "failed"
	)

	ETLBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etl_batch_size",
			Help:    "Number of records in an ETL batch at load time",
			Buckets: []float64{0, 1, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"pipeline"},
	)

	ETLLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etl_load_duration_seconds",
			Help:    "Duration of ETL sink load calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline"},
	)

	ETLLoadRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_load_retries_total",
			Help: "Total number of ETL load retries after a failed attempt",
		},
		[]string{"pipeline"},
	)

	ETLOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_nosql_operations_total",
			Help: "Total number of NoSQL ETL aggregate operations by event subtype",
		},
		[]string{"subtype", "operation"}, // operation: "applied" (the only value the NoSQL dispatch records)
	)

	ETLCascadeDeletes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_nosql_cascade_deletes_total",
			Help: "Total number of cascade deletes triggered by a parent review deletion",
		},
	)

	// Spill file metrics.
	SpillRecordsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spill_records_saved_total",
			Help: "Total number of records written to the spill file at shutdown",
		},
	)

	SpillRecordsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spill_records_recovered_total",
			Help: "Total number of records read back from the spill file at startup",
		},
	)

	// Uncaught error webhook sink.
	ErrTrackerDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errtracker_deliveries_total",
			Help: "Total number of error webhook delivery attempts by outcome",
		},
		[]string{"outcome"}, // "delivered", "rejected", "transport_error", "request_build_failed"
	)
)

// RecordIngestRequest records the outcome of a single ingest API request.
func RecordIngestRequest(eventType, status string, duration time.Duration) {
	IngestRequestsTotal.WithLabelValues(eventType, status).Inc()
	IngestRequestDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// RecordIngestValidationError records a single payload validation
// failure, one increment per offending field.
func RecordIngestValidationError(subtype, field string) {
	IngestValidationErrors.WithLabelValues(subtype, field).Inc()
}

// RecordIngestAuthFailure records a rejected ingest request due to JWT
// verification failure.
func RecordIngestAuthFailure(reason string) {
	IngestAuthFailures.WithLabelValues(reason).Inc()
}

// RecordBusPublish records a single Publish call's outcome. Called by
// both the log and broker bus adapters.
func RecordBusPublish(backend, topic string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	BusPublishTotal.WithLabelValues(backend, topic, outcome).Inc()
}

// RecordBusConsumeBatch records the size of a batch pulled from the bus.
func RecordBusConsumeBatch(backend, consumerGroup string, size int) {
	BusConsumeBatchSize.WithLabelValues(backend, consumerGroup).Observe(float64(size))
}

// RecordBusCommit records the duration of a Commit call.
func RecordBusCommit(backend string, duration time.Duration) {
	BusCommitDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// SetBusCircuitBreakerState reports the breaker's current state: 0
// closed, 1 half-open, 2 open.
func SetBusCircuitBreakerState(backend string, state int) {
	BusCircuitBreakerState.WithLabelValues(backend).Set(float64(state))
}

// RecordETLBatch records a processed ETL batch's size, load duration,
// and outcome for the named pipeline ("olap" or "nosql").
func RecordETLBatch(pipeline string, size int, duration time.Duration, err error) {
	ETLBatchSize.WithLabelValues(pipeline).Observe(float64(size))
	ETLLoadDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
	outcome := "loaded"
	if err != nil {
		outcome = "failed"
	}
	ETLBatchesProcessed.WithLabelValues(pipeline, outcome).Inc()
}

// RecordETLLoadRetry records one retried load attempt for the named
// pipeline.
func RecordETLLoadRetry(pipeline string) {
	ETLLoadRetries.WithLabelValues(pipeline).Inc()
}

// RecordETLOperation records a single NoSQL ETL aggregate operation.
func RecordETLOperation(subtype, operation string) {
	ETLOperationsTotal.WithLabelValues(subtype, operation).Inc()
}

// RecordETLCascadeDelete records a single cascade delete of dependent
// aggregates triggered by a parent review deletion.
func RecordETLCascadeDelete() {
	ETLCascadeDeletes.Inc()
}

// RecordSpillSave records the number of records written to the spill
// file in a single Save call.
func RecordSpillSave(count int) {
	SpillRecordsSaved.Add(float64(count))
}

// RecordSpillRecovery records the number of records read back from the
// spill file in a single Load call.
func RecordSpillRecovery(count int) {
	SpillRecordsRecovered.Add(float64(count))
}

// RecordErrTrackerDelivery records the outcome of a single error
// webhook delivery attempt.
func RecordErrTrackerDelivery(outcome string) {
	ErrTrackerDeliveries.WithLabelValues(outcome).Inc()
}
