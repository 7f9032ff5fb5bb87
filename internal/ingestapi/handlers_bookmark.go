// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ingestapi

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/practixhq/ugc-pipeline/internal/events"
)

// CreateBookmark handles POST /films/{film_id}/bookmarks.
func (h *Handler) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	h.bookmark(w, r, events.SubtypeCreateBookmark)
}

// DeleteBookmark handles DELETE /films/{film_id}/bookmarks.
func (h *Handler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	h.bookmark(w, r, events.SubtypeDeleteBookmark)
}

func (h *Handler) bookmark(w http.ResponseWriter, r *http.Request, subtype events.EventSubtype) {
	filmID, ok := uuidParam(w, r, "film_id")
	if !ok {
		return
	}

	env, err := h.buildEnvelope(r, events.EventTypeCustom)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	env.EventSubtype = subtype

	payload := events.BookmarkPayload{FilmID: filmID}
	if errs := payload.Validate(); len(errs) > 0 {
		writeValidationErrors(w, env, errs)
		return
	}
	raw, _ := json.Marshal(payload)
	env.Payload = raw

	h.publish(w, r, env, filmID)
}
