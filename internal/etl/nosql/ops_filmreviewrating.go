// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package nosql

import (
	"context"
	"errors"

	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/logging"
	"github.com/practixhq/ugc-pipeline/internal/ugcstore"
)

func handleCreateFilmReviewRating(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmReviewRatingPayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	err := store.CreateFilmReviewUserRating(ctx, p.ReviewID, env.UserID, p.Value, env.ServerTS)
	if errors.Is(err, ugcstore.ErrAlreadyExists) {
		logging.Warn().Str("review_id", p.ReviewID.String()).Str("user_id", env.UserID.String()).
			Msg("etl/nosql: create_film_review_rating already exists, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	return store.ApplyFilmReviewRatingDelta(ctx, p.ReviewID, ugcstore.DeltaCreate, nil, &p.Value)
}

func handleUpdateFilmReviewRating(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmReviewRatingPayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	oldValue, err := store.UpdateFilmReviewUserRating(ctx, p.ReviewID, env.UserID, p.Value, env.ServerTS)
	if errors.Is(err, ugcstore.ErrNotFound) {
		logging.Warn().Str("review_id", p.ReviewID.String()).Str("user_id", env.UserID.String()).
			Msg("etl/nosql: update_film_review_rating target absent, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	newValue := p.Value
	return store.ApplyFilmReviewRatingDelta(ctx, p.ReviewID, ugcstore.DeltaUpdate, &oldValue, &newValue)
}

func handleDeleteFilmReviewRating(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmReviewRatingDeletePayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	oldValue, err := store.DeleteFilmReviewUserRating(ctx, p.ReviewID, env.UserID)
	if errors.Is(err, ugcstore.ErrNotFound) {
		logging.Warn().Str("review_id", p.ReviewID.String()).Str("user_id", env.UserID.String()).
			Msg("etl/nosql: delete_film_review_rating target absent, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	return store.ApplyFilmReviewRatingDelta(ctx, p.ReviewID, ugcstore.DeltaDelete, &oldValue, nil)
}
