// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package auth

import (
	"context"
	"net/http"
)

// NoneAuthenticator accepts every request without inspecting
// credentials, assigning a fixed anonymous subject. Only intended for
// local development, per AuthModeNone.
type NoneAuthenticator struct{}

// NewNoneAuthenticator returns an Authenticator that never rejects a
// request.
func NewNoneAuthenticator() *NoneAuthenticator {
	return &NoneAuthenticator{}
}

// Authenticate always succeeds, returning a subject identifying the
// anonymous, unauthenticated caller.
func (a *NoneAuthenticator) Authenticate(_ context.Context, _ *http.Request) (*AuthSubject, error) {
	return &AuthSubject{ID: "anonymous", AuthMethod: AuthModeNone}, nil
}

// Name returns the authenticator name.
func (a *NoneAuthenticator) Name() string {
	return string(AuthModeNone)
}
