// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package events

// EventSubtype is the closed set of custom UGC operations. It is the
// tagged-variant replacement for the source's if/elif chain on a raw
// string: every known value except fully_watched and quality_changed
// has a handler in internal/etl/nosql's dispatch table, and anything
// without one is logged and dropped there.
type EventSubtype string

const (
	SubtypeFullyWatched   EventSubtype = "fully_watched"
	SubtypeQualityChanged EventSubtype = "quality_changed"

	SubtypeCreateFilmRating EventSubtype = "create_film_rating"
	SubtypeUpdateFilmRating EventSubtype = "update_film_rating"
	SubtypeDeleteFilmRating EventSubtype = "delete_film_rating"

	SubtypeCreateFilmReview EventSubtype = "create_film_review"
	SubtypeUpdateFilmReview EventSubtype = "update_film_review"
	SubtypeDeleteFilmReview EventSubtype = "delete_film_review"

	SubtypeCreateFilmReviewRating EventSubtype = "create_film_review_rating"
	SubtypeUpdateFilmReviewRating EventSubtype = "update_film_review_rating"
	SubtypeDeleteFilmReviewRating EventSubtype = "delete_film_review_rating"

	SubtypeCreateBookmark EventSubtype = "create_bookmark"
	SubtypeDeleteBookmark EventSubtype = "delete_bookmark"
)

// knownSubtypes backs Valid(); kept as a set literal rather than a
// generated list since the taxonomy is closed and small.
var knownSubtypes = map[EventSubtype]struct{}{
	SubtypeFullyWatched:           {},
	SubtypeQualityChanged:         {},
	SubtypeCreateFilmRating:       {},
	SubtypeUpdateFilmRating:       {},
	SubtypeDeleteFilmRating:       {},
	SubtypeCreateFilmReview:       {},
	SubtypeUpdateFilmReview:       {},
	SubtypeDeleteFilmReview:       {},
	SubtypeCreateFilmReviewRating: {},
	SubtypeUpdateFilmReviewRating: {},
	SubtypeDeleteFilmReviewRating: {},
	SubtypeCreateBookmark:         {},
	SubtypeDeleteBookmark:         {},
}

// Valid reports whether s is one of the closed set of known subtypes.
func (s EventSubtype) Valid() bool {
	_, ok := knownSubtypes[s]
	return ok
}

// AffectsAggregate reports whether this subtype mutates a derived
// FilmRating or FilmReviewRating aggregate, and therefore must be
// published keyed on the owning object id rather than event_id.
func (s EventSubtype) AffectsAggregate() bool {
	switch s {
	case SubtypeCreateFilmRating, SubtypeUpdateFilmRating, SubtypeDeleteFilmRating,
		SubtypeCreateFilmReviewRating, SubtypeUpdateFilmReviewRating, SubtypeDeleteFilmReviewRating,
		SubtypeCreateFilmReview, SubtypeUpdateFilmReview, SubtypeDeleteFilmReview:
		return true
	default:
		return false
	}
}
