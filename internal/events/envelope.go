// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package events defines the canonical UGC event envelope shared by the
// ingest API, both bus adapters, and both ETL consumers.
package events

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current envelope schema version.
const SchemaVersion = 1

// EventType is the top-level routing key. It is also the bus topic name.
type EventType string

const (
	// EventTypeClick is a generic UI click event.
	EventTypeClick EventType = "click"
	// EventTypeVisit is a generic page-visit event.
	EventTypeVisit EventType = "visit"
	// EventTypeCustom carries a closed set of UGC operations in EventSubtype.
	EventTypeCustom EventType = "custom"
)

// Topics lists the three pre-created bus topics, in the order adapters
// should declare/bind them at startup.
var Topics = []EventType{EventTypeClick, EventTypeVisit, EventTypeCustom}

// Envelope is the uniform outer shape of every ingested event.
type Envelope struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       uuid.UUID `json:"event_id"`
	RequestID     uuid.UUID `json:"request_id"`
	SessionID     uuid.UUID `json:"session_id"`
	UserID        uuid.UUID `json:"user_id"`

	UserTS     time.Time `json:"user_ts"`
	ServerTS   time.Time `json:"server_ts"`
	EventbusTS time.Time `json:"eventbus_ts,omitempty"`

	URL string `json:"url"`

	EventType    EventType      `json:"event_type"`
	EventSubtype EventSubtype   `json:"event_subtype,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// New creates an envelope with a fresh event_id and schema version, ready
// for the caller to fill in the remaining ingest-assigned fields.
func New(eventType EventType) *Envelope {
	return &Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New(),
		EventType:     eventType,
	}
}

// ValidationError represents a single field-level validation failure.
// A request with one or more of these is rejected with HTTP 422.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a list of field errors, returned verbatim as the
// machine-readable 422 body.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msg := e[0].Error()
	for _, ve := range e[1:] {
		msg += "; " + ve.Error()
	}
	return msg
}

// Validate checks the envelope's own required fields. It does not validate
// Payload; callers decode and validate the variant separately (see payload.go)
// because the variant's shape depends on the route, not just EventSubtype.
func (e *Envelope) Validate() ValidationErrors {
	var errs ValidationErrors
	if e.EventID == uuid.Nil {
		errs = append(errs, &ValidationError{Field: "event_id", Message: "required"})
	}
	if e.RequestID == uuid.Nil {
		errs = append(errs, &ValidationError{Field: "request_id", Message: "required"})
	}
	if e.UserID == uuid.Nil {
		errs = append(errs, &ValidationError{Field: "user_id", Message: "required"})
	}
	switch e.EventType {
	case EventTypeClick, EventTypeVisit, EventTypeCustom:
	default:
		errs = append(errs, &ValidationError{Field: "event_type", Message: "must be one of click, visit, custom"})
	}
	if e.EventType == EventTypeCustom {
		if !e.EventSubtype.Valid() {
			errs = append(errs, &ValidationError{Field: "event_subtype", Message: "required and must be a known operation for event_type=custom"})
		}
	} else if e.EventSubtype != "" {
		errs = append(errs, &ValidationError{Field: "event_subtype", Message: "must be empty unless event_type=custom"})
	}
	return errs
}

// Topic returns the bus topic/routing key for this envelope, which is
// simply its EventType.
func (e *Envelope) Topic() string {
	return string(e.EventType)
}

// ObjectKey returns the partitioning key a custom operation is published
// under: the owning film_id for film rating, film review, bookmark,
// fully_watched and quality_changed subtypes, the review_id for review
// rating subtypes, never event_id. click/visit, and a custom subtype
// whose id argument is uuid.Nil, fall back to EventID so they still
// partition evenly across the bus.
//
// This exists because the source system keyed every record by event_id,
// scattering rating events for the same film across partitions and
// breaking the one-writer-per-aggregate assumption; the object-id keying
// here is the deliberate fix, not a port of that behaviour.
func (e *Envelope) ObjectKey(filmID, reviewID uuid.UUID) string {
	if e.EventType != EventTypeCustom {
		return e.EventID.String()
	}
	switch e.EventSubtype {
	case SubtypeCreateFilmRating, SubtypeUpdateFilmRating, SubtypeDeleteFilmRating,
		SubtypeCreateFilmReview, SubtypeUpdateFilmReview, SubtypeDeleteFilmReview,
		SubtypeCreateBookmark, SubtypeDeleteBookmark,
		SubtypeFullyWatched, SubtypeQualityChanged:
		if filmID != uuid.Nil {
			return filmID.String()
		}
	case SubtypeCreateFilmReviewRating, SubtypeUpdateFilmReviewRating, SubtypeDeleteFilmReviewRating:
		if reviewID != uuid.Nil {
			return reviewID.String()
		}
	}
	return e.EventID.String()
}
