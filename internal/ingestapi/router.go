// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ingestapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/practixhq/ugc-pipeline/internal/auth"
	"github.com/practixhq/ugc-pipeline/internal/errtracker"
	"github.com/practixhq/ugc-pipeline/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler, so PrometheusMetrics can sit in the
// same r.Use() chain as everything else.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// NewRouter builds a standalone chi.Router serving only the ingest
// API, with its own middleware stack. cmd/ingest composes Routes
// directly onto a shared router instead, so the ingest and read APIs
// can sit behind one middleware stack; NewRouter exists for tests and
// any deployment that runs the ingest surface on its own.
func NewRouter(h *Handler, authMiddleware *auth.Middleware, tracker *errtracker.Tracker) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequireRequestID)
	r.Use(authMiddleware.Require)
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(recoverer(tracker))

	Routes(r, h)

	return r
}

// Routes registers the ingest API's routes onto r without touching its
// middleware stack, so a caller assembling one router for both the
// ingest and read APIs can apply shared middleware once and mount both
// route sets on top of it.
func Routes(r chi.Router, h *Handler) {
	r.Route("/events", func(r chi.Router) {
		r.Post("/click", h.Click)
		r.Post("/visit", h.Visit)
		if h.cfg.DebugRoutes {
			r.Post("/exception", h.Exception)
		}
	})

	r.Route("/films", func(r chi.Router) {
		r.Post("/{film_id}/fully_watched", h.FullyWatched)
		r.Post("/{film_id}/quality_changed", h.QualityChanged)

		r.Post("/{film_id}/rating", h.CreateRating)
		r.Patch("/{film_id}/rating", h.UpdateRating)
		r.Delete("/{film_id}/rating", h.DeleteRating)

		r.Post("/{film_id}/bookmarks", h.CreateBookmark)
		r.Delete("/{film_id}/bookmarks", h.DeleteBookmark)

		r.Post("/{film_id}/reviews", h.CreateReview)

		r.Route("/reviews/{review_id}", func(r chi.Router) {
			r.Patch("/", h.UpdateReview)
			r.Delete("/", h.DeleteReview)

			r.Post("/rating", h.CreateReviewRating)
			r.Patch("/rating", h.UpdateReviewRating)
			r.Delete("/rating", h.DeleteReviewRating)
		})
	})
}
