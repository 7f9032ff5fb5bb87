// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ugcstore

import (
	"testing"

	"github.com/google/uuid"
)

func intPtr(v int) *int { return &v }

func TestApplyDelta_CreateLifecycle(t *testing.T) {
	// Scenario 2 from spec.md §8: create rating 10, patch to 0, delete.
	agg := &RatingAggregate{Key: uuid.New()}

	applyDelta(agg, DeltaCreate, nil, intPtr(10))
	if agg.LikeCount != 1 || agg.DislikeCount != 0 || agg.ValueCount != 1 || agg.AvgRating != 10 {
		t.Fatalf("after create(10): %+v", agg)
	}

	applyDelta(agg, DeltaUpdate, intPtr(10), intPtr(0))
	if agg.LikeCount != 0 || agg.DislikeCount != 1 || agg.ValueCount != 1 || agg.AvgRating != 0 {
		t.Fatalf("after update(10->0): %+v", agg)
	}

	applyDelta(agg, DeltaDelete, intPtr(0), nil)
	if agg.LikeCount != 0 || agg.DislikeCount != 0 || agg.ValueCount != 0 || agg.AvgRating != 0 || agg.Sum != 0 {
		t.Fatalf("after delete: %+v", agg)
	}
}

func TestApplyDelta_ValueCountZeroForcesAvgZero(t *testing.T) {
	agg := &RatingAggregate{Key: uuid.New(), ValueCount: 1, Sum: 7, AvgRating: 7}
	applyDelta(agg, DeltaDelete, intPtr(7), nil)
	if agg.ValueCount != 0 || agg.AvgRating != 0 {
		t.Fatalf("expected value_count=0 avg=0, got %+v", agg)
	}
}

func TestApplyDelta_MiddleValuesDoNotAffectLikeDislike(t *testing.T) {
	agg := &RatingAggregate{Key: uuid.New()}
	applyDelta(agg, DeltaCreate, nil, intPtr(5))
	if agg.LikeCount != 0 || agg.DislikeCount != 0 {
		t.Fatalf("rating of 5 should not affect like/dislike counts: %+v", agg)
	}
	if agg.AvgRating != 5 {
		t.Fatalf("expected avg 5, got %v", agg.AvgRating)
	}
}

func TestApplyDelta_CascadeReviewRatingScenario(t *testing.T) {
	// Scenario 4 from spec.md §8: ratings 10, 10, 0 → like:2 dislike:1 avg≈6.67 count:3.
	agg := &RatingAggregate{Key: uuid.New()}
	applyDelta(agg, DeltaCreate, nil, intPtr(10))
	applyDelta(agg, DeltaCreate, nil, intPtr(10))
	applyDelta(agg, DeltaCreate, nil, intPtr(0))

	if agg.LikeCount != 2 || agg.DislikeCount != 1 || agg.ValueCount != 3 {
		t.Fatalf("unexpected counts: %+v", agg)
	}
	want := 20.0 / 3.0
	if diff := agg.AvgRating - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected avg %.4f, got %.4f", want, agg.AvgRating)
	}
}

func TestApplyDelta_UpdateAdjustsBothEndpoints(t *testing.T) {
	agg := &RatingAggregate{Key: uuid.New()}
	applyDelta(agg, DeltaCreate, nil, intPtr(0))
	applyDelta(agg, DeltaUpdate, intPtr(0), intPtr(10))
	if agg.LikeCount != 1 || agg.DislikeCount != 0 {
		t.Fatalf("update from dislike-endpoint to like-endpoint: %+v", agg)
	}
}
