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

func handleCreateFilmRating(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmRatingPayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	err := store.CreateFilmUserRating(ctx, p.FilmID, env.UserID, p.Value, env.ServerTS)
	if errors.Is(err, ugcstore.ErrAlreadyExists) {
		logging.Warn().Str("film_id", p.FilmID.String()).Str("user_id", env.UserID.String()).
			Msg("etl/nosql: create_film_rating already exists, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	return store.ApplyFilmRatingDelta(ctx, p.FilmID, ugcstore.DeltaCreate, nil, &p.Value)
}

func handleUpdateFilmRating(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmRatingPayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	oldValue, err := store.UpdateFilmUserRating(ctx, p.FilmID, env.UserID, p.Value, env.ServerTS)
	if errors.Is(err, ugcstore.ErrNotFound) {
		logging.Warn().Str("film_id", p.FilmID.String()).Str("user_id", env.UserID.String()).
			Msg("etl/nosql: update_film_rating target absent, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	newValue := p.Value
	return store.ApplyFilmRatingDelta(ctx, p.FilmID, ugcstore.DeltaUpdate, &oldValue, &newValue)
}

func handleDeleteFilmRating(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.FilmRatingDeletePayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	oldValue, err := store.DeleteFilmUserRating(ctx, p.FilmID, env.UserID)
	if errors.Is(err, ugcstore.ErrNotFound) {
		logging.Warn().Str("film_id", p.FilmID.String()).Str("user_id", env.UserID.String()).
			Msg("etl/nosql: delete_film_rating target absent, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	return store.ApplyFilmRatingDelta(ctx, p.FilmID, ugcstore.DeltaDelete, &oldValue, nil)
}
