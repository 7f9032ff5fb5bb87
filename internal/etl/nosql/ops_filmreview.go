// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package nosql

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/metrics"
	"github.com/practixhq/ugc-pipeline/internal/ugcstore"
)

// handleCreateFilmReview uses the payload's review_id, assigned by the
// ingest API from the originating event's event_id before publish: a
// review needs an identifier before its create event even exists.
func handleCreateFilmReview(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmReviewPayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}
	if p.ReviewID == uuid.Nil || p.FilmID == uuid.Nil {
		logging.Warn().Str("event_id", env.EventID.String()).Msg("etl/nosql: create_film_review missing film_id/review_id, dropping")
		return nil
	}

	err := store.CreateFilmReview(ctx, p.ReviewID, p.FilmID, env.UserID, p.Value, env.ServerTS)
	if errors.Is(err, ugcstore.ErrAlreadyExists) {
		logging.Warn().Str("review_id", p.ReviewID.String()).Msg("etl/nosql: create_film_review already exists, skipping")
		return nil
	}
	return err
}

func handleUpdateFilmReview(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmReviewPayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}
	if p.ReviewID == uuid.Nil {
		logging.Warn().Str("event_id", env.EventID.String()).Msg("etl/nosql: update_film_review missing review_id, dropping")
		return nil
	}

	err := store.UpdateFilmReview(ctx, p.ReviewID, p.Value, env.ServerTS)
	if errors.Is(err, ugcstore.ErrNotFound) {
		logging.Warn().Str("review_id", p.ReviewID.String()).Msg("etl/nosql: update_film_review target absent, skipping")
		return nil
	}
	return err
}

// handleDeleteFilmReview cascades: the primary review, its
// FilmReviewUserRating rows, and its derived FilmReviewRating are
// removed in that order by DeleteFilmReviewCascade, each step
// independently idempotent and safe to replay on a retried batch.
func handleDeleteFilmReview(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmReviewDeletePayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	err := store.DeleteFilmReviewCascade(ctx, p.ReviewID)
	if errors.Is(err, ugcstore.ErrNotFound) {
		logging.Warn().Str("review_id", p.ReviewID.String()).Msg("etl/nosql: delete_film_review target absent, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	metrics.RecordETLCascadeDelete()
	return nil
}
