// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

/*
Package metrics provides Prometheus metrics collection and export for
the ingest API and both ETL binaries.

# Overview

The package instruments:
  - Ingest API request handling and validation failures
  - Event bus publish/consume/commit behaviour across both backends
  - OLAP and NoSQL ETL batch processing, load duration, and retries
  - Spill file save/recovery counts
  - Uncaught error webhook delivery

# Metrics Endpoint

Metrics are exposed in Prometheus text format at the path configured by
MetricsConfig.Path (default /metrics):

	curl http://localhost:9090/metrics

# Available Metrics

Ingest API:
  - ingest_requests_total{event_type,status}
  - ingest_request_duration_seconds{event_type}
  - ingest_validation_errors_total{subtype,field}
  - ingest_auth_failures_total{reason} (RecordIngestAuthFailure has no
    caller, so this counter stays at zero)

Event Bus:
  - bus_publish_total{backend,topic,outcome}
  - bus_consume_batch_size{backend,consumer_group}
  - bus_commit_duration_seconds{backend}
  - bus_circuit_breaker_state{backend}

ETL:
  - etl_batches_processed_total{pipeline,outcome}
  - etl_batch_size{pipeline}
  - etl_load_duration_seconds{pipeline}
  - etl_load_retries_total{pipeline}
  - etl_nosql_operations_total{subtype,operation}
  - etl_nosql_cascade_deletes_total

Spill:
  - spill_records_saved_total
  - spill_records_recovered_total

Error Webhook:
  - errtracker_deliveries_total{outcome}

# Usage

Recording functions are called from the component that owns the event
(bus adapters call RecordBusPublish, the ETL loops call RecordETLBatch,
and so on). The collectors themselves are exported package variables,
which the tests read through prometheus/testutil.
*/
package metrics
