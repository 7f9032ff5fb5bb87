// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics integration. These
components work alongside the authentication middleware to create a complete
middleware stack for HTTP request processing.

Key Components:

  - Compression: Gzip compression for clients that accept it
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

cmd/ingest builds one chi router for the ingest and read APIs, in this
order (chiMiddleware adapts the http.HandlerFunc-shaped middleware):

	r.Use(cors.Handler(corsOptions))                   // CORS headers
	r.Use(middleware.RequireRequestID)                 // 400 without X-Request-Id
	r.Use(authMiddleware.Require)                      // bearer-token auth
	r.Use(chiMiddleware(middleware.PrometheusMetrics)) // request metrics
	r.Use(perfMonitor.Middleware)                      // latency samples
	r.Use(chiMiddleware(middleware.Compression))       // gzip
	r.Use(ingestHandler.Recoverer())                   // panic -> 500

Usage Example - Compression:

	import "github.com/practixhq/ugc-pipeline/internal/middleware"

	// Wrap handler with gzip compression
	http.HandleFunc("/api/v1/data",
	    middleware.Compression(handler),
	)

	// Every response is compressed when the request's
	// Accept-Encoding header includes gzip

Usage Example - Performance Monitoring:

	// Create performance monitor keeping the 2000 most recent samples
	perfMon := middleware.NewPerformanceMonitor(2000)

	// Wrap handler
	http.Handle("/api/v1/stats",
	    perfMon.Middleware(handler),
	)

	// Get per-endpoint statistics (durations in milliseconds)
	for _, s := range perfMon.GetStats() {
	    fmt.Printf("%s p50: %d, p95: %d, p99: %d\n",
	        s.Path, s.P50Duration, s.P95Duration, s.P99Duration)
	}

Usage Example - Request ID:

	// Request ID middleware
	http.HandleFunc("/api/v1/logs",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := r.Context().Value(middleware.RequestIDKey).(string)
	    log.Printf("[%s] Processing request", requestID)
	}

Performance Characteristics:

  - Compression: 70-90% size reduction for JSON (text/json mime types)
  - Compression overhead: ~1-2ms for typical responses
  - Metrics overhead: <0.1ms per request
  - Request ID overhead: <0.01ms (UUID generation)
  - Performance monitor: mutex-guarded sliding window of latency samples

Compression Details:

The compression middleware:
  - Compresses every response, whatever its size or content type
  - Supports gzip encoding (Accept-Encoding: gzip)
  - Skips WebSocket upgrade requests
  - Sets Content-Encoding: gzip and drops any Content-Length header
  - Does not flush compressed data before the handler returns

Performance Monitor:

The performance monitor tracks:
  - Request count and total duration per endpoint (status codes are
    kept per sample; no error rate is computed)
  - Latency percentiles (p50, p95, p99)
  - Rolling window of the maxMetrics most recent requests
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Compression uses per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/auth: Authentication middleware
  - internal/ingestapi, internal/readapi: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
