// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package events

import (
	"testing"

	"github.com/google/uuid"
)

func TestEnvelopeValidate(t *testing.T) {
	base := func() *Envelope {
		return &Envelope{
			EventID:   uuid.New(),
			RequestID: uuid.New(),
			UserID:    uuid.New(),
			EventType: EventTypeClick,
		}
	}

	t.Run("valid click envelope", func(t *testing.T) {
		e := base()
		if errs := e.Validate(); len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
	})

	t.Run("missing event_id", func(t *testing.T) {
		e := base()
		e.EventID = uuid.Nil
		errs := e.Validate()
		if len(errs) != 1 || errs[0].Field != "event_id" {
			t.Fatalf("expected single event_id error, got %v", errs)
		}
	})

	t.Run("custom without subtype", func(t *testing.T) {
		e := base()
		e.EventType = EventTypeCustom
		errs := e.Validate()
		if len(errs) != 1 || errs[0].Field != "event_subtype" {
			t.Fatalf("expected event_subtype error, got %v", errs)
		}
	})

	t.Run("subtype set without custom type", func(t *testing.T) {
		e := base()
		e.EventSubtype = SubtypeCreateBookmark
		errs := e.Validate()
		if len(errs) != 1 || errs[0].Field != "event_subtype" {
			t.Fatalf("expected event_subtype error, got %v", errs)
		}
	})

	t.Run("unknown event_type", func(t *testing.T) {
		e := base()
		e.EventType = "bogus"
		errs := e.Validate()
		if len(errs) != 1 || errs[0].Field != "event_type" {
			t.Fatalf("expected event_type error, got %v", errs)
		}
	})
}

func TestObjectKeyPartitionsByOwningObject(t *testing.T) {
	filmID := uuid.New()
	reviewID := uuid.New()

	e := &Envelope{
		EventID:      uuid.New(),
		EventType:    EventTypeCustom,
		EventSubtype: SubtypeCreateFilmRating,
	}
	if got := e.ObjectKey(filmID, uuid.Nil); got != filmID.String() {
		t.Fatalf("expected film_id key, got %s", got)
	}

	e.EventSubtype = SubtypeCreateFilmReviewRating
	if got := e.ObjectKey(uuid.Nil, reviewID); got != reviewID.String() {
		t.Fatalf("expected review_id key, got %s", got)
	}

	// click events always fall back to event_id.
	clickEvt := &Envelope{EventID: uuid.New(), EventType: EventTypeClick}
	if got := clickEvt.ObjectKey(filmID, reviewID); got != clickEvt.EventID.String() {
		t.Fatalf("expected event_id fallback key, got %s", got)
	}
}

func TestEventSubtypeValid(t *testing.T) {
	if !SubtypeCreateFilmRating.Valid() {
		t.Fatal("expected create_film_rating to be valid")
	}
	if EventSubtype("not_a_real_subtype").Valid() {
		t.Fatal("expected unknown subtype to be invalid")
	}
}

func TestDecodeAndValidateRejectsOutOfRangeValue(t *testing.T) {
	p := &FilmRatingPayload{}
	errs := DecodeAndValidate([]byte(`{"film_id":"`+uuid.New().String()+`","value":11}`), p)
	if len(errs) != 1 || errs[0].Field != "value" {
		t.Fatalf("expected value range error, got %v", errs)
	}
}
