// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ugcstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/google/uuid"
)

// FilmUserRating is one user's rating of one film. Keyed by (film_id,
// user_id); the Mongo _id is their concatenation so create/update/delete
// are single-document operations by primary key.
type FilmUserRating struct {
	ID        string    `bson:"_id"`
	FilmID    uuid.UUID `bson:"film_id"`
	UserID    uuid.UUID `bson:"user_id"`
	Value     int       `bson:"value"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty"`
}

func ratingKey(filmID, userID uuid.UUID) string {
	return filmID.String() + ":" + userID.String()
}

func reviewRatingKey(reviewID, userID uuid.UUID) string {
	return reviewID.String() + ":" + userID.String()
}

func bookmarkKey(filmID, userID uuid.UUID) string {
	return filmID.String() + ":" + userID.String()
}

// CreateFilmUserRating inserts a new rating row. Returns ErrAlreadyExists
// if (film_id, user_id) already has one.
func (s *Store) CreateFilmUserRating(ctx context.Context, filmID, userID uuid.UUID, value int, now time.Time) error {
	doc := FilmUserRating{
		ID:        ratingKey(filmID, userID),
		FilmID:    filmID,
		UserID:    userID,
		Value:     value,
		CreatedAt: now,
	}
	_, err := s.db.Collection(collFilmUserRating).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

// UpdateFilmUserRating overwrites value/updated_at and returns the prior
// value for delta computation. Returns ErrNotFound if the row is absent.
func (s *Store) UpdateFilmUserRating(ctx context.Context, filmID, userID uuid.UUID, newValue int, now time.Time) (int, error) {
	var existing FilmUserRating
	key := ratingKey(filmID, userID)
	if err := s.db.Collection(collFilmUserRating).FindOne(ctx, bson.M{"_id": key}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	_, err := s.db.Collection(collFilmUserRating).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": newValue, "updated_at": now}},
	)
	return existing.Value, err
}

// DeleteFilmUserRating removes the row and returns its prior value.
// Returns ErrNotFound if the row is absent.
func (s *Store) DeleteFilmUserRating(ctx context.Context, filmID, userID uuid.UUID) (int, error) {
	var existing FilmUserRating
	key := ratingKey(filmID, userID)
	coll := s.db.Collection(collFilmUserRating)
	if err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return 0, err
	}
	return existing.Value, nil
}

// FilmReview is one user's review of a film, keyed by its own review_id.
// The (film_id, user_id) pair is still enforced unique at create time, per
// spec.md §3, but lookups by the routes in §6 are by review_id.
type FilmReview struct {
	ID        uuid.UUID `bson:"_id"`
	FilmID    uuid.UUID `bson:"film_id"`
	UserID    uuid.UUID `bson:"user_id"`
	Value     string    `bson:"value"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty"`
}

// CreateFilmReview inserts a review under reviewID. Returns
// ErrAlreadyExists if (film_id, user_id) already has a review.
func (s *Store) CreateFilmReview(ctx context.Context, reviewID, filmID, userID uuid.UUID, value string, now time.Time) error {
	coll := s.db.Collection(collFilmReview)

	count, err := coll.CountDocuments(ctx, bson.M{"film_id": filmID, "user_id": userID})
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyExists
	}

	_, err = coll.InsertOne(ctx, FilmReview{
		ID:        reviewID,
		FilmID:    filmID,
		UserID:    userID,
		Value:     value,
		CreatedAt: now,
	})
	return err
}

// UpdateFilmReview overwrites a review's text by review_id. Returns
// ErrNotFound if absent.
func (s *Store) UpdateFilmReview(ctx context.Context, reviewID uuid.UUID, value string, now time.Time) error {
	res, err := s.db.Collection(collFilmReview).UpdateOne(ctx,
		bson.M{"_id": reviewID},
		bson.M{"$set": bson.M{"value": value, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFilmReviewCascade deletes the review and, best-effort in order,
// all FilmReviewUserRating rows and the derived FilmReviewRating for it,
// per spec.md §4.4's cascade-delete ordering. Each step is independently
// idempotent and safe to replay.
func (s *Store) DeleteFilmReviewCascade(ctx context.Context, reviewID uuid.UUID) error {
	res, err := s.db.Collection(collFilmReview).DeleteOne(ctx, bson.M{"_id": reviewID})
	if err != nil {
		return err
	}
	// A replay after a partial failure finds the review already gone; the
	// dependent steps still run so the cascade completes.
	reviewAbsent := res.DeletedCount == 0

	if _, err := s.db.Collection(collFilmReviewUserRating).DeleteMany(ctx, bson.M{"review_id": reviewID}); err != nil {
		return err
	}

	if _, err := s.db.Collection(collFilmReviewRating).DeleteOne(ctx, bson.M{"_id": reviewID}); err != nil {
		return err
	}

	if reviewAbsent {
		return ErrNotFound
	}
	return nil
}

// FilmReviewUserRating is one user's rating of one review.
type FilmReviewUserRating struct {
	ID        string    `bson:"_id"`
	ReviewID  uuid.UUID `bson:"review_id"`
	UserID    uuid.UUID `bson:"user_id"`
	Value     int       `bson:"value"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty"`
}

// CreateFilmReviewUserRating inserts a new review-rating row.
func (s *Store) CreateFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID, value int, now time.Time) error {
	doc := FilmReviewUserRating{
		ID:        reviewRatingKey(reviewID, userID),
		ReviewID:  reviewID,
		UserID:    userID,
		Value:     value,
		CreatedAt: now,
	}
	_, err := s.db.Collection(collFilmReviewUserRating).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

// UpdateFilmReviewUserRating overwrites value/updated_at and returns the
// prior value.
func (s *Store) UpdateFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID, newValue int, now time.Time) (int, error) {
	var existing FilmReviewUserRating
	key := reviewRatingKey(reviewID, userID)
	coll := s.db.Collection(collFilmReviewUserRating)
	if err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": newValue, "updated_at": now}},
	)
	return existing.Value, err
}

// DeleteFilmReviewUserRating removes the row and returns its prior value.
func (s *Store) DeleteFilmReviewUserRating(ctx context.Context, reviewID, userID uuid.UUID) (int, error) {
	var existing FilmReviewUserRating
	key := reviewRatingKey(reviewID, userID)
	coll := s.db.Collection(collFilmReviewUserRating)
	if err := coll.FindOne(ctx, bson.M{"_id": key}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return 0, err
	}
	return existing.Value, nil
}

// UserBookmark marks that a user bookmarked a film.
type UserBookmark struct {
	ID        string    `bson:"_id"`
	FilmID    uuid.UUID `bson:"film_id"`
	UserID    uuid.UUID `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// CreateUserBookmark inserts a bookmark, or returns ErrAlreadyExists.
func (s *Store) CreateUserBookmark(ctx context.Context, filmID, userID uuid.UUID, now time.Time) error {
	doc := UserBookmark{
		ID:        bookmarkKey(filmID, userID),
		FilmID:    filmID,
		UserID:    userID,
		CreatedAt: now,
	}
	_, err := s.db.Collection(collUserBookmark).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

// DeleteUserBookmark removes a bookmark, or returns ErrNotFound.
func (s *Store) DeleteUserBookmark(ctx context.Context, filmID, userID uuid.UUID) error {
	res, err := s.db.Collection(collUserBookmark).DeleteOne(ctx, bson.M{"_id": bookmarkKey(filmID, userID)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUserBookmarks returns a user's bookmarks ordered by creation time,
// paginated by skip/limit, for the read API's GET /films/bookmarks.
func (s *Store) ListUserBookmarks(ctx context.Context, userID uuid.UUID, skip, limit int64) ([]UserBookmark, error) {
	opts := bsonFindOptions(skip, limit)
	cursor, err := s.db.Collection(collUserBookmark).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookmarks []UserBookmark
	if err := cursor.All(ctx, &bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}
