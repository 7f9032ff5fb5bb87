// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package readapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/practixhq/ugc-pipeline/internal/auth"
)

// Mount attaches the read-side routes to r under /films, reusing the
// same auth middleware the ingest routes enforce. The caller owns
// request-id and metrics middleware; Mount only adds what's specific
// to reads.
func Mount(r chi.Router, h *Handler, authMiddleware *auth.Middleware) {
	r.Route("/films", func(r chi.Router) {
		r.Use(authMiddleware.Require)
		r.Get("/bookmarks", h.Bookmarks)
		r.Get("/{film_id}/rating", h.FilmRating)
		r.Get("/{film_id}/reviews", h.FilmReviews)
	})
}
