// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ingestapi

import "net/http"

// Exception handles POST /events/exception, mounted only when
// Config.DebugRoutes is set. It panics deliberately so an operator can
// exercise the recoverer/error-tracker path end to end without waiting
// for a genuine bug, and without touching the event bus.
func (h *Handler) Exception(w http.ResponseWriter, r *http.Request) {
	panic("ingestapi: deliberate debug panic from /events/exception")
}
