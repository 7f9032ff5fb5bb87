// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ingestapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// uuidParam parses the named chi URL parameter as a uuid.UUID, writing
// a 400 and returning ok=false on a missing or malformed value.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, name+" must be a valid uuid", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
