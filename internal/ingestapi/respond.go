// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ingestapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/metrics"
)

// errNoSubject is returned by buildEnvelope when the auth middleware's
// context carries no subject, which should never happen once Require
// has run, but is checked explicitly rather than trusted.
var errNoSubject = errors.New("ingestapi: no authenticated subject in context")

// validationResponse is the machine-readable 422 body spec.md §4.1 and
// §6 require for payload-schema violations.
type validationResponse struct {
	Errors []fieldError `json:"errors"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// writeValidationErrors writes a 422 with one entry per failed field,
// and records one ingest_validation_errors_total sample per field so a
// single route's bad-payload rate is visible per field, not just
// per request.
func writeValidationErrors(w http.ResponseWriter, env *events.Envelope, errs events.ValidationErrors) {
	subtype := ""
	if env != nil {
		subtype = string(env.EventSubtype)
		if subtype == "" {
			subtype = string(env.EventType)
		}
	}

	resp := validationResponse{Errors: make([]fieldError, 0, len(errs))}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, fieldError{Field: e.Field, Message: e.Message})
		metrics.RecordIngestValidationError(subtype, e.Field)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(resp)
}

// bodyBytes reads the full request body. A missing or unreadable body
// is returned as nil, which DecodeAndValidate treats as "nothing to
// unmarshal" and validates the zero-value payload as-is.
func bodyBytes(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil
	}
	return data
}
