// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/metrics"
)

// PrometheusMetrics records ingest_requests_total and
// ingest_request_duration_seconds for every request, keyed by the
// request path's trailing segment (click, visit, rating, bookmarks,
// reviews, ...; see eventTypeFromPath).
func PrometheusMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &metricsResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next(wrapper, r)

		duration := time.Since(start)
		eventType := eventTypeFromPath(r.URL.Path)
		status := "accepted"
		if wrapper.statusCode >= 500 {
			status = "error"
		} else if wrapper.statusCode >= 400 {
			status = "rejected"
		}
		metrics.RecordIngestRequest(eventType, status, duration)
	}
}

// eventTypeFromPath extracts the trailing path segment of an ingest
// route as a low-cardinality metric label (so /healthz gives "healthz"),
// falling back to "unknown" for a path with no segment after its last
// slash. A trailing UUID, as on the review update/delete routes, is
// skipped in favour of the segment before it.
func eventTypeFromPath(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return "unknown"
	}
	segment := trimmed[idx+1:]
	if segment == "" {
		return "unknown"
	}
	if _, err := uuid.Parse(segment); err == nil {
		return eventTypeFromPath(trimmed[:idx])
	}
	return segment
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
