// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ingestapi

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/events"
)

// Click handles POST /events/click.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	env, err := h.buildEnvelope(r, events.EventTypeClick)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var payload events.ClickPayload
	if !decodePayload(w, r, env, &payload) {
		return
	}
	raw, _ := json.Marshal(payload)
	env.Payload = raw

	h.publish(w, r, env, uuid.Nil)
}

// Visit handles POST /events/visit.
func (h *Handler) Visit(w http.ResponseWriter, r *http.Request) {
	env, err := h.buildEnvelope(r, events.EventTypeVisit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var payload events.VisitPayload
	if !decodePayload(w, r, env, &payload) {
		return
	}
	raw, _ := json.Marshal(payload)
	env.Payload = raw

	h.publish(w, r, env, uuid.Nil)
}
