// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package ugcstore is the MongoDB-backed document store for UGC
// aggregates: per-user ratings and reviews, and the derived per-film
// and per-review rating summaries the NoSQL ETL maintains from them.
package ugcstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/practixhq/ugc-pipeline/internal/logging"
)

const (
	collFilmUserRating       = "FilmUserRating"
	collFilmReview           = "FilmReview"
	collFilmReviewUserRating = "FilmReviewUserRating"
	collUserBookmark         = "UserBookmark"
	collFilmRating           = "FilmRating"
	collFilmReviewRating     = "FilmReviewRating"
)

// ErrNotFound is returned when a primary row lookup misses; callers log a
// warning and skip the event, per spec.md §4.4's per-operation semantics.
var ErrNotFound = errors.New("ugcstore: not found")

// ErrAlreadyExists is returned when a create would duplicate an existing
// key; callers log a warning and skip the event.
var ErrAlreadyExists = errors.New("ugcstore: already exists")

// Store wraps a MongoDB database connection used by the NoSQL ETL (for
// writes) and the read API (for reads). One Store per process, backed by
// the driver's own connection pool.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the server, and returns a Store bound to
// database. The ping uses a context bounded by timeout so a misconfigured
// or unreachable Mongo fails startup fast rather than hanging.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("ugcstore: connect: %w", err)
	}
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ugcstore: ping %s: %w", uri, err)
	}

	logging.Info().Str("database", database).Msg("ugcstore: connected to MongoDB")
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
