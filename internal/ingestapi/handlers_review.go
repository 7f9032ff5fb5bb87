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

// CreateReview handles POST /films/{film_id}/reviews. The review's own
// id is not client-supplied: it is assigned from the envelope's event
// id, so the review and the event that created it always share one id.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	filmID, ok := uuidParam(w, r, "film_id")
	if !ok {
		return
	}

	env, err := h.buildEnvelope(r, events.EventTypeCustom)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	env.EventSubtype = events.SubtypeCreateFilmReview

	var payload events.FilmReviewPayload
	if !decodePayload(w, r, env, &payload) {
		return
	}
	payload.FilmID = filmID
	payload.ReviewID = env.EventID
	raw, _ := json.Marshal(payload)
	env.Payload = raw

	h.publish(w, r, env, filmID)
}

// UpdateReview handles PATCH /films/reviews/{review_id}.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := uuidParam(w, r, "review_id")
	if !ok {
		return
	}

	env, err := h.buildEnvelope(r, events.EventTypeCustom)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	env.EventSubtype = events.SubtypeUpdateFilmReview

	var payload events.FilmReviewPayload
	if !decodePayload(w, r, env, &payload) {
		return
	}
	payload.ReviewID = reviewID
	raw, _ := json.Marshal(payload)
	env.Payload = raw

	h.publish(w, r, env, reviewID)
}

// DeleteReview handles DELETE /films/reviews/{review_id}.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := uuidParam(w, r, "review_id")
	if !ok {
		return
	}

	env, err := h.buildEnvelope(r, events.EventTypeCustom)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	env.EventSubtype = events.SubtypeDeleteFilmReview

	payload := events.FilmReviewDeletePayload{ReviewID: reviewID}
	if errs := payload.Validate(); len(errs) > 0 {
		writeValidationErrors(w, env, errs)
		return
	}
	raw, _ := json.Marshal(payload)
	env.Payload = raw

	h.publish(w, r, env, reviewID)
}

// CreateReviewRating handles POST /films/reviews/{review_id}/rating.
func (h *Handler) CreateReviewRating(w http.ResponseWriter, r *http.Request) {
	h.reviewRating(w, r, events.SubtypeCreateFilmReviewRating, true)
}

// UpdateReviewRating handles PATCH /films/reviews/{review_id}/rating.
func (h *Handler) UpdateReviewRating(w http.ResponseWriter, r *http.Request) {
	h.reviewRating(w, r, events.SubtypeUpdateFilmReviewRating, true)
}

// DeleteReviewRating handles DELETE /films/reviews/{review_id}/rating.
func (h *Handler) DeleteReviewRating(w http.ResponseWriter, r *http.Request) {
	h.reviewRating(w, r, events.SubtypeDeleteFilmReviewRating, false)
}

func (h *Handler) reviewRating(w http.ResponseWriter, r *http.Request, subtype events.EventSubtype, withValue bool) {
	reviewID, ok := uuidParam(w, r, "review_id")
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
		payload := events.FilmReviewRatingPayload{ReviewID: reviewID}
		if !decodePayload(w, r, env, &payload) {
			return
		}
		payload.ReviewID = reviewID
		raw, _ = json.Marshal(payload)
	} else {
		payload := events.FilmReviewRatingDeletePayload{ReviewID: reviewID}
		if errs := payload.Validate(); len(errs) > 0 {
			writeValidationErrors(w, env, errs)
			return
		}
		raw, _ = json.Marshal(payload)
	}
	env.Payload = raw

	h.publish(w, r, env, reviewID)
}
