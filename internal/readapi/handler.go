// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package readapi implements the read-side HTTP endpoints that serve
// the aggregates internal/etl/nosql maintains: a film's rating
// aggregate, its reviews joined with their own rating aggregate, and a
// user's bookmarks. These routes are additive to the event-sourcing
// pipeline spec.md describes: the pipeline has no purpose if nothing
// ever reads the aggregates it produces.
package readapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/ugcstore"
)

// Store is the narrow slice of *ugcstore.Store this package reads
// from, so handlers are testable against a fake without a live
// MongoDB instance.
type Store interface {
	GetFilmRating(ctx context.Context, filmID uuid.UUID) (*ugcstore.RatingAggregate, error)
	ListFilmReviews(ctx context.Context, filmID uuid.UUID, skip, limit int64) ([]ugcstore.FilmReviewWithRating, error)
	ListUserBookmarks(ctx context.Context, userID uuid.UUID, skip, limit int64) ([]ugcstore.UserBookmark, error)
}

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Handler serves the read-side routes.
type Handler struct {
	store Store
}

// New returns a Handler backed by store.
func New(store Store) *Handler {
	return &Handler{store: store}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// pagination reads skip/limit query parameters, clamping limit to
// [1, maxLimit] and defaulting it to defaultLimit when absent or
// invalid; skip defaults to 0.
func pagination(r *http.Request) (skip, limit int64) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if raw := r.URL.Query().Get("skip"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= 0 {
			skip = n
		}
	}
	return skip, limit
}
