// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package readapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/auth"
)

// FilmRating handles GET /films/{film_id}/rating.
func (h *Handler) FilmRating(w http.ResponseWriter, r *http.Request) {
	filmID, ok := uuidParam(w, r, "film_id")
	if !ok {
		return
	}

	agg, err := h.store.GetFilmRating(r.Context(), filmID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newRatingDTO(filmID, agg))
}

// FilmReviews handles GET /films/{film_id}/reviews.
func (h *Handler) FilmReviews(w http.ResponseWriter, r *http.Request) {
	filmID, ok := uuidParam(w, r, "film_id")
	if !ok {
		return
	}
	skip, limit := pagination(r)

	reviews, err := h.store.ListFilmReviews(r.Context(), filmID, skip, limit)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newReviewsResponse(filmID, reviews))
}

// Bookmarks handles GET /films/bookmarks, scoped to the authenticated
// caller: spec.md never defines a cross-user bookmark listing, and
// exposing one here would leak another user's library.
func (h *Handler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := uuid.Parse(subject.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	skip, limit := pagination(r)

	bookmarks, err := h.store.ListUserBookmarks(r.Context(), userID, skip, limit)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newBookmarkDTOs(bookmarks))
}
