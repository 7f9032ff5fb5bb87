// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ingestapi

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/practixhq/ugc-pipeline/internal/errtracker"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/middleware"
)

// recoverer is chi's Recoverer middleware with one addition: a panic is
// also reported to the error tracker before the 500 is written, keyed
// by the request's X-Request-Id so a paged alert can be traced back to
// the exact request that caused it.
func recoverer(tracker *errtracker.Tracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil && rvr != http.ErrAbortHandler {
					requestID := middleware.GetRequestID(r.Context())
					stack := string(debug.Stack())

					logging.Ctx(r.Context()).Error().
						Str("request_id", requestID).
						Bytes("stack", []byte(stack)).
						Msgf("ingestapi: recovered panic: %v", rvr)

					if tracker != nil {
						tracker.Report(context.Background(), errtracker.Event{
							Service:   "ingest",
							Kind:      "panic",
							Message:   fmt.Sprintf("%v", rvr),
							RequestID: requestID,
							Stack:     stack,
						})
					}

					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Recoverer returns the panic recoverer bound to the Handler's error
// tracker, for callers that assemble their own router around Routes.
func (h *Handler) Recoverer() func(http.Handler) http.Handler {
	return recoverer(h.tracker)
}
