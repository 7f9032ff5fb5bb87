// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package ingestapi implements the UGC ingest HTTP surface: one route
// per event kind in the external-interfaces table, each sharing the
// same enrich/validate/publish pipeline described by spec §4.1.
package ingestapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/practixhq/ugc-pipeline/internal/auth"
	"github.com/practixhq/ugc-pipeline/internal/bus"
	"github.com/practixhq/ugc-pipeline/internal/errtracker"
	"github.com/practixhq/ugc-pipeline/internal/events"
	"github.com/practixhq/ugc-pipeline/internal/logging"
)

// Config holds the routing-level settings the handler needs at request
// time: which bus backend to use by default, whether a request may
// override it, and whether the diagnostic exception route is mounted.
type Config struct {
	DefaultBackend bus.Backend
	HeaderAllowed  bool
	DebugRoutes    bool
}

// Handler holds everything the ingest routes share: the bus adapters
// keyed by backend (so a request can pick one when Config.HeaderAllowed
// is set, per spec.md §9's bus-selection-header note), and the
// error tracker every panic/validation-adjacent failure reports to.
type Handler struct {
	cfg     Config
	buses   map[bus.Backend]bus.Bus
	tracker *errtracker.Tracker
}

// New returns a Handler. buses must contain an entry for cfg.DefaultBackend.
func New(cfg Config, buses map[bus.Backend]bus.Bus, tracker *errtracker.Tracker) *Handler {
	return &Handler{cfg: cfg, buses: buses, tracker: tracker}
}

// selectBus resolves which bus backend a request publishes through.
// The header override only takes effect when Config.HeaderAllowed is
// set, which Config.EventbusHeaderAllowed forces off in production.
func (h *Handler) selectBus(r *http.Request) (bus.Bus, bus.Backend, error) {
	backend := h.cfg.DefaultBackend
	if h.cfg.HeaderAllowed {
		if raw := r.Header.Get("Eventbus"); raw != "" {
			parsed, err := bus.ParseBackend(raw)
			if err != nil {
				return nil, "", err
			}
			backend = parsed
		}
	}
	b, ok := h.buses[backend]
	if !ok {
		return nil, "", fmt.Errorf("ingestapi: no bus configured for backend %q", backend)
	}
	return b, backend, nil
}

// requestIDUUID derives a stable UUID from the caller-supplied
// X-Request-Id header. The header is opaque per spec.md §6, but the
// envelope schema keys on a UUID; a request id that already parses as
// one is used verbatim, otherwise it is deterministically folded into
// one so retries of the same client request id still dedupe to the
// same envelope.RequestID.
func requestIDUUID(raw string) uuid.UUID {
	if id, err := uuid.Parse(raw); err == nil {
		return id
	}
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(raw))
}

// buildEnvelope assembles the outer envelope fields common to every
// route: event id, schema version, request/session/user ids, url and
// timestamps. Handlers fill in EventType/EventSubtype/Payload.
func (h *Handler) buildEnvelope(r *http.Request, eventType events.EventType) (*events.Envelope, error) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == nil {
		return nil, errNoSubject
	}
	userID, err := uuid.Parse(subject.ID)
	if err != nil {
		return nil, fmt.Errorf("ingestapi: subject id is not a uuid: %w", err)
	}

	env := events.New(eventType)
	env.RequestID = requestIDUUID(r.Header.Get("X-Request-Id"))
	env.SessionID = sessionIDUUID(r)
	env.UserID = userID
	env.URL = r.URL.String()
	env.UserTS = time.Now().UTC()
	env.ServerTS = env.UserTS
	return env, nil
}

// sessionIDUUID derives a session id from an optional X-Session-Id
// header the same way requestIDUUID does, falling back to a fresh
// random id when the caller sends none: unlike the request id, a
// missing session id is not a client error, just an anonymous session.
func sessionIDUUID(r *http.Request) uuid.UUID {
	raw := r.Header.Get("X-Session-Id")
	if raw == "" {
		return uuid.New()
	}
	return requestIDUUID(raw)
}

// publish validates env and its already-attached payload, then
// publishes it keyed by objectKey (or env.EventID when objectKey is
// uuid.Nil), and writes the HTTP response.
func (h *Handler) publish(w http.ResponseWriter, r *http.Request, env *events.Envelope, objectKey uuid.UUID) {
	if errs := env.Validate(); len(errs) > 0 {
		writeValidationErrors(w, env, errs)
		return
	}

	raw, err := json.Marshal(env)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("ingestapi: marshal envelope")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	b, _, err := h.selectBus(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := env.EventID.String()
	if objectKey != uuid.Nil {
		key = objectKey.String()
	}

	// The bus adapter records bus_publish_total for this call.
	pubErr := b.Publish(r.Context(), env.Topic(), key, raw)

	if pubErr != nil {
		logging.Ctx(r.Context()).Error().Err(pubErr).Str("topic", env.Topic()).Msg("ingestapi: publish failed")
		http.Error(w, "event bus unavailable", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// decodePayload decodes and validates the request body into dst,
// writing a 422 and returning false on failure.
func decodePayload(w http.ResponseWriter, r *http.Request, env *events.Envelope, dst interface {
	Validate() events.ValidationErrors
}) bool {
	errs := events.DecodeAndValidate(bodyBytes(r), dst)
	if len(errs) > 0 {
		writeValidationErrors(w, env, errs)
		return false
	}
	return true
}
