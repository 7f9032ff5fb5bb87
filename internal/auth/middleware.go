// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package auth

import (
	"errors"
	"net/http"

	"github.com/practixhq/ugc-pipeline/internal/logging"
)

// Middleware wraps an Authenticator as chi-compatible HTTP middleware:
// it rejects requests that fail Authenticate and stores the resulting
// AuthSubject in the request context for handlers to retrieve with
// SubjectFromContext.
type Middleware struct {
	authenticator Authenticator
}

// NewMiddleware returns a Middleware backed by authenticator. Passing
// an authenticator configured with AuthModeNone effectively disables
// authentication, since such an authenticator should always return a
// subject without inspecting the request; that mode is wired by the
// caller, not this package.
func NewMiddleware(authenticator Authenticator) *Middleware {
	return &Middleware{authenticator: authenticator}
}

// Require returns a middleware that 401s unless the request carries
// credentials the wrapped Authenticator accepts.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.authenticator.Authenticate(r.Context(), r)
		if err != nil {
			m.writeUnauthorized(w, err)
			return
		}

		ctx := ContextWithSubject(r.Context(), subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) writeUnauthorized(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoCredentials):
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
	case errors.Is(err, ErrExpiredCredentials):
		http.Error(w, "token expired", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, "invalid token", http.StatusUnauthorized)
	default:
		logging.Error().Err(err).Msg("auth middleware: unexpected authenticate error")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
}
