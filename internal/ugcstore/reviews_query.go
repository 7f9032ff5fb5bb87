// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ugcstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/google/uuid"
)

// FilmReviewWithRating is one row of the film_reviews read-API response:
// a review joined to its derived rating summary.
type FilmReviewWithRating struct {
	ReviewID  uuid.UUID       `bson:"review_id"`
	FilmID    uuid.UUID       `bson:"film_id"`
	UserID    uuid.UUID       `bson:"user_id"`
	Value     string          `bson:"value"`
	Rating    RatingAggregate `bson:"rating"`
	CreatedAt time.Time       `bson:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// ListFilmReviews runs the film_reviews aggregation pipeline for
// GET /films/{film_id}/reviews: match by film_id, join FilmReview to
// FilmReviewRating by review_id, paginate. A review with no rating yet
// is dropped by the $lookup/$unwind stage, a direct translation of the
// original_source service's pipeline.
func (s *Store) ListFilmReviews(ctx context.Context, filmID uuid.UUID, skip, limit int64) ([]FilmReviewWithRating, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"film_id": filmID}}},
		bson.D{{Key: "$addFields", Value: bson.M{"review_id": "$_id"}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         collFilmReviewRating,
			"localField":   "review_id",
			"foreignField": "_id",
			"as":           "rating",
		}}},
		bson.D{{Key: "$unwind", Value: "$rating"}},
		bson.D{{Key: "$project", Value: bson.M{
			"review_id": 1, "film_id": 1, "user_id": 1, "value": 1,
			"rating":     1,
			"created_at": 1, "updated_at": 1,
		}}},
	}
	if skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: skip}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := s.db.Collection(collFilmReview).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reviews []FilmReviewWithRating
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
