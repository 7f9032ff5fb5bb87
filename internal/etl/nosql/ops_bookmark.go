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

func handleCreateBookmark(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.BookmarkPayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	err := store.CreateUserBookmark(ctx, p.FilmID, env.UserID, env.ServerTS)
	if errors.Is(err, ugcstore.ErrAlreadyExists) {
		logging.Warn().Str("film_id", p.FilmID.String()).Str("user_id", env.UserID.String()).
			Msg("etl/nosql: create_bookmark already exists, skipping")
		return nil
	}
	return err
}

func handleDeleteBookmark(ctx context.Context, store DocStore, env *events.Envelope) error {
	var p events.BookmarkPayload
	if errs := events.DecodeAndValidate(env.Payload, &p); len(errs) > 0 {
		logInvalidPayload(env, errs)
		return nil
	}

	err := store.DeleteUserBookmark(ctx, p.FilmID, env.UserID)
	if errors.Is(err, ugcstore.ErrNotFound) {
		logging.Warn().Str("film_id", p.FilmID.String()).Str("user_id", env.UserID.String()).
			Msg("etl/nosql: delete_bookmark target absent, skipping")
		return nil
	}
	return err
}
