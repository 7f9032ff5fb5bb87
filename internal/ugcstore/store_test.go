// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

//go:build integration

package ugcstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Connect(context.Background(), "mongodb://127.0.0.1:27017", "ugc_pipeline_test", 5*time.Second)
	if err != nil {
		t.Skipf("mongo not reachable: %v", err)
	}
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func TestStore_FilmUserRating_CreateIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	filmID, userID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	if err := store.CreateFilmUserRating(ctx, filmID, userID, 10, now); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := store.CreateFilmUserRating(ctx, filmID, userID, 10, now); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on duplicate create, got %v", err)
	}
}

func TestStore_DeleteFilmReviewCascade(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	filmID, userID := uuid.New(), uuid.New()
	reviewID := uuid.New()
	now := time.Now().UTC()

	if err := store.CreateFilmReview(ctx, reviewID, filmID, userID, "great film", now); err != nil {
		t.Fatalf("create review: %v", err)
	}

	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	for _, u := range []uuid.UUID{u1, u2, u3} {
		if err := store.CreateFilmReviewUserRating(ctx, reviewID, u, 10, now); err != nil {
			t.Fatalf("create review rating: %v", err)
		}
		if err := store.ApplyFilmReviewRatingDelta(ctx, reviewID, DeltaCreate, nil, intPtr(10)); err != nil {
			t.Fatalf("apply delta: %v", err)
		}
	}

	if err := store.DeleteFilmReviewCascade(ctx, reviewID); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	agg, err := store.GetFilmReviewRating(ctx, reviewID)
	if err != nil {
		t.Fatalf("get after cascade: %v", err)
	}
	if agg.ValueCount != 0 {
		t.Fatalf("expected absent/zeroed aggregate after cascade delete, got %+v", agg)
	}
}
