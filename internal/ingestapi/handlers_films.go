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

// FullyWatched handles POST /films/{film_id}/fully_watched. The payload
// is entirely derived from the path; the route takes no body.
func (h *Handler) FullyWatched(w http.ResponseWriter, r *http.Request) {
	filmID, ok := uuidParam(w, r, "film_id")
	if !ok {
		return
	}

	env, err := h.buildEnvelope(r, events.EventTypeCustom)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	env.EventSubtype = events.SubtypeFullyWatched

	payload := events.FullyWatchedPayload{FilmID: filmID}
	if errs := payload.Validate(); len(errs) > 0 {
		writeValidationErrors(w, env, errs)
		return
	}
	raw, _ := json.Marshal(payload)
	env.Payload = raw

	h.publish(w, r, env, filmID)
}

// QualityChanged handles POST /films/{film_id}/quality_changed.
func (h *Handler) QualityChanged(w http.ResponseWriter, r *http.Request) {
	filmID, ok := uuidParam(w, r, "film_id")
	if !ok {
		return
	}

	env, err := h.buildEnvelope(r, events.EventTypeCustom)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	env.EventSubtype = events.SubtypeQualityChanged

	payload := events.QualityChangedPayload{FilmID: filmID}
	if !decodePayload(w, r, env, &payload) {
		return
	}
	payload.FilmID = filmID // path is authoritative over any body film_id
	raw, _ := json.Marshal(payload)
	env.Payload = raw

	h.publish(w, r, env, filmID)
}

// CreateRating handles POST /films/{film_id}/rating.
func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	h.rating(w, r, events.SubtypeCreateFilmRating, true)
}

// UpdateRating handles PATCH /films/{film_id}/rating.
func (h *Handler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	h.rating(w, r, events.SubtypeUpdateFilmRating, true)
}

// DeleteRating handles DELETE /films/{film_id}/rating.
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	h.rating(w, r, events.SubtypeDeleteFilmRating, false)
}

// rating implements the three film-rating routes: create/update carry a
// value in [0,10], delete carries none.
func (h *Handler) rating(w http.ResponseWriter, r *http.Request, subtype events.EventSubtype, withValue bool) {
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

	var raw []byte
	if withValue {
		payload := events.FilmRatingPayload{FilmID: filmID}
		if !decodePayload(w, r, env, &payload) {
			return
		}
		payload.FilmID = filmID
		raw, _ = json.Marshal(payload)
	} else {
		payload := events.FilmRatingDeletePayload{FilmID: filmID}
		if errs := payload.Validate(); len(errs) > 0 {
			writeValidationErrors(w, env, errs)
			return
		}
		raw, _ = json.Marshal(payload)
	}
	env.Payload = raw

	h.publish(w, r, env, filmID)
}
