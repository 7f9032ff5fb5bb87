// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package readapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/ugcstore"
)

// ratingDTO is the wire shape of GET /films/{film_id}/rating. It drops
// ugcstore.RatingAggregate's internal Key/ValueCount/Sum fields, none of
// which are part of the external response.
type ratingDTO struct {
	FilmID       uuid.UUID `json:"film_id"`
	LikeCount    int       `json:"like_count"`
	DislikeCount int       `json:"dislike_count"`
	AvgRating    float64   `json:"avg_rating"`
}

func newRatingDTO(filmID uuid.UUID, agg *ugcstore.RatingAggregate) ratingDTO {
	return ratingDTO{
		FilmID:       filmID,
		LikeCount:    agg.LikeCount,
		DislikeCount: agg.DislikeCount,
		AvgRating:    agg.AvgRating,
	}
}

// reviewRatingDTO is the nested rating object inside each entry of
// GET /films/{film_id}/reviews; a review's own aggregate has no
// film_id of its own to report.
type reviewRatingDTO struct {
	LikeCount    int     `json:"like_count"`
	DislikeCount int     `json:"dislike_count"`
	AvgRating    float64 `json:"avg_rating"`
}

// reviewDTO is one entry of GET /films/{film_id}/reviews.
type reviewDTO struct {
	ReviewID uuid.UUID       `json:"review_id"`
	Value    string          `json:"value"`
	Rating   reviewRatingDTO `json:"rating"`
}

// reviewsResponse is the full body of GET /films/{film_id}/reviews.
type reviewsResponse struct {
	FilmID  uuid.UUID   `json:"film_id"`
	Reviews []reviewDTO `json:"reviews"`
}

func newReviewsResponse(filmID uuid.UUID, reviews []ugcstore.FilmReviewWithRating) reviewsResponse {
	out := reviewsResponse{FilmID: filmID, Reviews: make([]reviewDTO, len(reviews))}
	for i, rv := range reviews {
		out.Reviews[i] = reviewDTO{
			ReviewID: rv.ReviewID,
			Value:    rv.Value,
			Rating: reviewRatingDTO{
				LikeCount:    rv.Rating.LikeCount,
				DislikeCount: rv.Rating.DislikeCount,
				AvgRating:    rv.Rating.AvgRating,
			},
		}
	}
	return out
}

// bookmarkDTO is one entry of GET /films/bookmarks.
type bookmarkDTO struct {
	FilmID    uuid.UUID `json:"film_id"`
	CreatedAt time.Time `json:"created_at"`
}

func newBookmarkDTOs(bookmarks []ugcstore.UserBookmark) []bookmarkDTO {
	out := make([]bookmarkDTO, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = bookmarkDTO{FilmID: b.FilmID, CreatedAt: b.CreatedAt}
	}
	return out
}
