// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package events

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/validation"
)

// ClickPayload is the payload for POST /events/click.
type ClickPayload struct {
	ElementID      string `json:"element_id" validate:"required"`
	ElementPayload string `json:"element_payload"`
}

// Validate implements the field-level checks for ClickPayload.
func (p *ClickPayload) Validate() ValidationErrors { return fromValidator(p) }

// VisitPayload is the payload for POST /events/visit; it carries no
// fields of its own, the envelope's url/user_id/timestamps are enough.
type VisitPayload struct{}

// Validate always succeeds; VisitPayload has no fields to check.
func (VisitPayload) Validate() ValidationErrors { return nil }

// FullyWatchedPayload is the payload for POST /films/{film_id}/fully_watched.
type FullyWatchedPayload struct {
	FilmID uuid.UUID `json:"film_id" validate:"uuid_required"`
}

func (p *FullyWatchedPayload) Validate() ValidationErrors { return fromValidator(p) }

// QualityChangedPayload is the payload for POST /films/{film_id}/quality_changed.
type QualityChangedPayload struct {
	FilmID          uuid.UUID `json:"film_id" validate:"uuid_required"`
	PreviousQuality string    `json:"previous_quality" validate:"required"`
	NextQuality     string    `json:"next_quality" validate:"required"`
}

func (p *QualityChangedPayload) Validate() ValidationErrors { return fromValidator(p) }

// FilmRatingPayload backs create/update of a FilmUserRating.
type FilmRatingPayload struct {
	FilmID uuid.UUID `json:"film_id" validate:"uuid_required"`
	Value  int       `json:"value" validate:"gte=0,lte=10"`
}

func (p *FilmRatingPayload) Validate() ValidationErrors { return fromValidator(p) }

// FilmRatingDeletePayload backs delete of a FilmUserRating; it carries
// no rating value.
type FilmRatingDeletePayload struct {
	FilmID uuid.UUID `json:"film_id" validate:"uuid_required"`
}

func (p *FilmRatingDeletePayload) Validate() ValidationErrors { return fromValidator(p) }

// FilmReviewPayload backs create/update of a FilmReview.
type FilmReviewPayload struct {
	FilmID   uuid.UUID `json:"film_id,omitempty"`
	ReviewID uuid.UUID `json:"review_id,omitempty"`
	Value    string    `json:"value" validate:"required"`
}

func (p *FilmReviewPayload) Validate() ValidationErrors { return fromValidator(p) }

// FilmReviewDeletePayload backs delete of a FilmReview.
type FilmReviewDeletePayload struct {
	ReviewID uuid.UUID `json:"review_id" validate:"uuid_required"`
}

func (p *FilmReviewDeletePayload) Validate() ValidationErrors { return fromValidator(p) }

// FilmReviewRatingPayload backs create/update of a FilmReviewUserRating.
type FilmReviewRatingPayload struct {
	ReviewID uuid.UUID `json:"review_id" validate:"uuid_required"`
	Value    int       `json:"value" validate:"gte=0,lte=10"`
}

func (p *FilmReviewRatingPayload) Validate() ValidationErrors { return fromValidator(p) }

// FilmReviewRatingDeletePayload backs delete of a FilmReviewUserRating.
type FilmReviewRatingDeletePayload struct {
	ReviewID uuid.UUID `json:"review_id" validate:"uuid_required"`
}

func (p *FilmReviewRatingDeletePayload) Validate() ValidationErrors { return fromValidator(p) }

// BookmarkPayload backs create/delete of a UserBookmark.
type BookmarkPayload struct {
	FilmID uuid.UUID `json:"film_id" validate:"uuid_required"`
}

func (p *BookmarkPayload) Validate() ValidationErrors { return fromValidator(p) }

// fromValidator runs validation.ValidateStruct against dst (a pointer to
// one of the payload variants above) and translates its field errors
// into this package's own ValidationErrors, so ingestapi's handlers never
// need to know a third-party validator produced them.
func fromValidator(dst interface{}) ValidationErrors {
	fieldErrs := validation.ValidateStruct(dst)
	if len(fieldErrs) == 0 {
		return nil
	}
	out := make(ValidationErrors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = &ValidationError{Field: fe.Field, Message: fe.Message}
	}
	return out
}

// payloadValidator is implemented by every payload variant above.
type payloadValidator interface {
	Validate() ValidationErrors
}

// DecodeAndValidate unmarshals raw into dst (a pointer to one of the
// payload variants above) and runs its Validate method. It is the single
// choke point the ingest handlers call after parsing the envelope, per
// the route table in the external-interfaces section of the spec.
func DecodeAndValidate(raw []byte, dst payloadValidator) ValidationErrors {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return ValidationErrors{{Field: "payload", Message: "malformed JSON: " + err.Error()}}
		}
	}
	return dst.Validate()
}
