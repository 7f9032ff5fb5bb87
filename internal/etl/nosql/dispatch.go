// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package nosql runs the NoSQL ETL loop: the same extract/guard stage as
// the OLAP ETL, followed by a dispatch table that maps each envelope's
// event_subtype to one of six idempotent document-store operations.
package nosql

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/metrics"
	"github.com/practixhq/ugc-pipeline/internal/ugcstore"
)

// DocStore is the subset of *ugcstore.Store the dispatch handlers
// depend on, kept as an interface so the loop can be tested against a
// fake store without a live MongoDB instance.
type DocStore interface {
	CreateFilmUserRating(ctx context.Context, filmID, userID uuid.UUID, value int, now time.Time) error
	UpdateFilmUserRating(ctx context.Context, filmID, userID uuid.UUID, newValue int, now time.Time) (int, error)
	DeleteFilmUserRating(ctx context.Context, filmID, userID uuid.UUID) (int, error)
	ApplyFilmRatingDelta(ctx context.Context, filmID uuid.UUID, op ugcstore.DeltaOp, oldValue, newValue *int) error

	CreateFilmReview(ctx context.Context, reviewID, filmID, userID uuid.UUID, value string, now time.Time) error
	UpdateFilmReview(ctx context.Context, reviewID uuid.UUID, value string, now time.Time) error
	DeleteFilmReviewCascade(ctx context.Context, reviewID uuid.UUID) error

	CreateFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID, value int, now time.Time) error
	UpdateFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID, newValue int, now time.Time) (int, error)
	DeleteFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID) (int, error)
	ApplyFilmReviewRatingDelta(ctx context.Context, reviewID uuid.UUID, op ugcstore.DeltaOp, oldValue, newValue *int) error

	CreateUserBookmark(ctx context.Context, filmID, userID uuid.UUID, now time.Time) error
	DeleteUserBookmark(ctx context.Context, filmID, userID uuid.UUID) error
}

// operationHandler applies one envelope's custom operation to store.
type operationHandler func(ctx context.Context, store DocStore, env *events.Envelope) error

// dispatchTable maps every event_subtype this ETL persists to its
// handler. fully_watched and quality_changed are valid subtypes (the
// OLAP ETL logs them as rows) but have no document-store operation, so
// dispatch below logs and drops them like any other unknown subtype.
var dispatchTable = map[events.EventSubtype]operationHandler{
	events.SubtypeCreateFilmRating: handleCreateFilmRating,
	events.SubtypeUpdateFilmRating: handleUpdateFilmRating,
	events.SubtypeDeleteFilmRating: handleDeleteFilmRating,

	events.SubtypeCreateFilmReview: handleCreateFilmReview,
	events.SubtypeUpdateFilmReview: handleUpdateFilmReview,
	events.SubtypeDeleteFilmReview: handleDeleteFilmReview,

	events.SubtypeCreateFilmReviewRating: handleCreateFilmReviewRating,
	events.SubtypeUpdateFilmReviewRating: handleUpdateFilmReviewRating,
	events.SubtypeDeleteFilmReviewRating: handleDeleteFilmReviewRating,

	events.SubtypeCreateBookmark: handleCreateBookmark,
	events.SubtypeDeleteBookmark: handleDeleteBookmark,
}

// dispatch routes env to its operation handler by event_subtype.
func dispatch(ctx context.Context, store DocStore, env *events.Envelope) error {
	handler, ok := dispatchTable[env.EventSubtype]
	if !ok {
		logging.Warn().Str("event_subtype", string(env.EventSubtype)).Msg("etl/nosql: dropping unhandled event subtype")
		return nil
	}
	if err := handler(ctx, store, env); err != nil {
		return err
	}
	metrics.RecordETLOperation(string(env.EventSubtype), "applied")
	return nil
}

// logInvalidPayload logs and drops an envelope whose payload fails
// decode/validate. Malformed payloads are a producer bug, not a
// transient failure, so they are never retried.
func logInvalidPayload(env *events.Envelope, errs events.ValidationErrors) {
	logging.Warn().
		Str("event_id", env.EventID.String()).
		Str("event_subtype", string(env.EventSubtype)).
		Err(errs).
		Msg("etl/nosql: dropping event with invalid payload")
}
