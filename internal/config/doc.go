// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

/*
Package config provides centralized configuration management for the
UGC ingestion pipeline: the ingest/read API and both ETL binaries share
a single Config loaded through Koanf v2.

# Configuration Sources

Configuration is assembled in three layers, each overriding the last:

  1. Built-in defaults (defaultConfig), sufficient for local development
     against services on their standard ports.
  2. An optional YAML file, located via the CONFIG_PATH environment
     variable or one of DefaultConfigPaths.
  3. Environment variables, mapped onto config paths through a
     recognised-keys table in envMappings; unrecognised variables are
     ignored rather than rejected.

# Configuration Structure

  - ServerConfig: ingest/read HTTP listen address, timeouts, CORS.
  - BusConfig: event bus backend selection (log/broker) and per-backend
    connection settings (LogBusConfig for NATS JetStream, BrokerBusConfig
    for AMQP), plus circuit breaker tuning shared by both adapters.
  - AuthConfig: RS256 JWT verification (public key path, audience).
  - OLAPConfig: DuckDB columnar store path and naming.
  - MongoConfig: document store connection used by the NoSQL ETL and the
    read API.
  - ETLConfig: batch/backoff tuning shared by both ETL loops.
  - SpillConfig: the OLAP ETL's durable-on-shutdown spill file path.
  - ErrTrackerConfig: the uncaught-error webhook sink.
  - LoggingConfig: zerolog level/format/caller settings.
  - MetricsConfig: the Prometheus metrics HTTP endpoint.

# Environment Variables

Selected recognised variables (see envMappings for the full table):

  HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, ENVIRONMENT, DEBUG_ROUTES, CORS_ORIGINS
  BUS_BACKEND, BUS_ALLOW_HEADER_OVERRIDE
  NATS_URL, NATS_MAX_RECONNECTS, NATS_ACK_WAIT, NATS_MAX_ACK_PENDING
  AMQP_URI
  JWT_PUBLIC_KEY_PATH, JWT_AUDIENCE
  OLAP_PATH, OLAP_DATABASE, OLAP_CLUSTER_NAME
  MONGO_URI, MONGO_DATABASE, MONGO_TIMEOUT
  ETL_BATCH_SIZE, ETL_MIN_BATCH_BEFORE_LOAD, ETL_POLL_TIMEOUT
  ETL_BACKOFF_INITIAL, ETL_BACKOFF_MAX, ETL_CONSUMER_GROUP
  SPILL_PATH
  ERROR_SINK_WEBHOOK_URL, ERROR_SINK_TIMEOUT
  LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  METRICS_ENABLED, METRICS_PATH, METRICS_PORT

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.EventbusHeaderAllowed() {
		// honor a per-request Eventbus override header
	}

# Production Safety

Config.EventbusHeaderAllowed forces the per-request Eventbus backend
override off whenever Server.Environment is "production", regardless of
BusConfig.AllowHeaderOverride, so a misconfigured client header can
never split production traffic across both bus backends.
*/
package config
