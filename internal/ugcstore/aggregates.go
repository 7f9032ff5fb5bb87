// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ugcstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/google/uuid"
)

// RatingAggregate is the derived per-film or per-review rating summary.
// Sum is an internal field, not part of the external read-API shape: it
// lets mutations recompute AvgRating as sum/count on every delta instead
// of accumulating through avg*count arithmetic, per the Open Question
// decision recorded in DESIGN.md.
type RatingAggregate struct {
	Key          uuid.UUID `bson:"_id"`
	LikeCount    int       `bson:"like_count"`
	DislikeCount int       `bson:"dislike_count"`
	ValueCount   int       `bson:"value_count"`
	Sum          float64   `bson:"sum"`
	AvgRating    float64   `bson:"avg_rating"`
}

// DeltaOp identifies which of the three delta formulas in spec.md §4.4 to
// apply to a RatingAggregate.
type DeltaOp int

const (
	DeltaCreate DeltaOp = iota
	DeltaUpdate
	DeltaDelete
)

// applyDelta mutates agg in place per spec.md §4.4's delta algebra.
// oldValue is required for DeltaUpdate/DeltaDelete, newValue for
// DeltaCreate/DeltaUpdate; the unused pointer for a given op is ignored.
func applyDelta(agg *RatingAggregate, op DeltaOp, oldValue, newValue *int) {
	switch op {
	case DeltaCreate:
		v := *newValue
		agg.ValueCount++
		agg.Sum += float64(v)
		if v == 10 {
			agg.LikeCount++
		}
		if v == 0 {
			agg.DislikeCount++
		}
	case DeltaDelete:
		v := *oldValue
		agg.ValueCount--
		agg.Sum -= float64(v)
		if v == 10 {
			agg.LikeCount--
		}
		if v == 0 {
			agg.DislikeCount--
		}
		if agg.ValueCount <= 0 {
			agg.ValueCount = 0
			agg.Sum = 0
		}
	case DeltaUpdate:
		oldv, newv := *oldValue, *newValue
		agg.Sum = agg.Sum - float64(oldv) + float64(newv)
		if oldv == 10 {
			agg.LikeCount--
		}
		if oldv == 0 {
			agg.DislikeCount--
		}
		if newv == 10 {
			agg.LikeCount++
		}
		if newv == 0 {
			agg.DislikeCount++
		}
	}

	if agg.ValueCount > 0 {
		agg.AvgRating = agg.Sum / float64(agg.ValueCount)
	} else {
		agg.AvgRating = 0
	}
}

// applyAggregateDelta fetches the aggregate document in coll keyed by key
// (creating a zeroed one if absent), applies op, and replaces it. This is
// the single point both FilmRating and FilmReviewRating mutation go
// through; spec.md §4.4's "atomic per aggregate" requirement is satisfied
// by the NoSQL ETL's single-worker, partitioned-by-object-id concurrency
// model (§4.4), not by a multi-document transaction.
func applyAggregateDelta(ctx context.Context, coll *mongo.Collection, key uuid.UUID, op DeltaOp, oldValue, newValue *int) error {
	var agg RatingAggregate
	err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&agg)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		agg = RatingAggregate{Key: key}
	case err != nil:
		return err
	}

	applyDelta(&agg, op, oldValue, newValue)

	_, err = coll.ReplaceOne(ctx, bson.M{"_id": key}, agg, options.Replace().SetUpsert(true))
	return err
}

// ApplyFilmRatingDelta updates FilmRating{film_id} per op.
func (s *Store) ApplyFilmRatingDelta(ctx context.Context, filmID uuid.UUID, op DeltaOp, oldValue, newValue *int) error {
	return applyAggregateDelta(ctx, s.db.Collection(collFilmRating), filmID, op, oldValue, newValue)
}

// ApplyFilmReviewRatingDelta updates FilmReviewRating{review_id} per op.
func (s *Store) ApplyFilmReviewRatingDelta(ctx context.Context, reviewID uuid.UUID, op DeltaOp, oldValue, newValue *int) error {
	return applyAggregateDelta(ctx, s.db.Collection(collFilmReviewRating), reviewID, op, oldValue, newValue)
}

// GetFilmRating returns FilmRating{film_id}, synthesising a zeroed
// aggregate if absent, per spec.md §4.5.
func (s *Store) GetFilmRating(ctx context.Context, filmID uuid.UUID) (*RatingAggregate, error) {
	return getOrZeroAggregate(ctx, s.db.Collection(collFilmRating), filmID)
}

// GetFilmReviewRating returns FilmReviewRating{review_id}, synthesising a
// zeroed aggregate if absent.
func (s *Store) GetFilmReviewRating(ctx context.Context, reviewID uuid.UUID) (*RatingAggregate, error) {
	return getOrZeroAggregate(ctx, s.db.Collection(collFilmReviewRating), reviewID)
}

func getOrZeroAggregate(ctx context.Context, coll *mongo.Collection, key uuid.UUID) (*RatingAggregate, error) {
	var agg RatingAggregate
	err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&agg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &RatingAggregate{Key: key}, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
