// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthMode names an authentication strategy for the ingest API.
type AuthMode string

const (
	// AuthModeNone disables authentication; only used in local development.
	AuthModeNone AuthMode = "none"

	// AuthModeRS256 verifies bearer tokens signed by the identity
	// service's RSA private key.
	AuthModeRS256 AuthMode = "rs256"
)

// ParseAuthMode converts a string to AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "none", "":
		return AuthModeNone, nil
	case "rs256":
		return AuthModeRS256, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

// String returns the string representation of AuthMode.
func (m AuthMode) String() string {
	return string(m)
}

// Standard authentication errors.
var (
	// ErrNoCredentials indicates no bearer token was provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the token failed signature or
	// claim validation.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates the token's exp claim has passed.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Authenticator defines the interface for ingest API authentication
// providers.
type Authenticator interface {
	// Authenticate extracts and validates credentials from the request.
	// Returns AuthSubject on success, error on failure.
	Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error)

	// Name returns the authenticator's name for logging.
	Name() string
}

// AuthSubject represents the identity carried by a validated bearer
// token.
type AuthSubject struct {
	// ID is the token's sub claim: the identity service's user id.
	ID string `json:"id"`

	// Issuer is the token's iss claim, if present.
	Issuer string `json:"issuer,omitempty"`

	// Audience is the token's aud claim that matched the configured
	// audience.
	Audience string `json:"audience,omitempty"`

	// AuthMethod indicates how the subject was authenticated.
	AuthMethod AuthMode `json:"auth_method"`

	// IssuedAt is the token's iat claim, in Unix seconds.
	IssuedAt int64 `json:"issued_at,omitempty"`

	// ExpiresAt is the token's exp claim, in Unix seconds.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// RawClaims holds the original claim set for debugging or downstream
	// extensibility. Not exposed in JSON by default.
	RawClaims map[string]interface{} `json:"-"`
}

type contextKey int

const subjectContextKey contextKey = iota

// ContextWithSubject returns a new context carrying subject, for
// handlers downstream of the auth middleware to retrieve via
// SubjectFromContext.
func ContextWithSubject(ctx context.Context, subject *AuthSubject) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// SubjectFromContext retrieves the AuthSubject set by ContextWithSubject,
// or nil if none is present.
func SubjectFromContext(ctx context.Context) *AuthSubject {
	subject, _ := ctx.Value(subjectContextKey).(*AuthSubject)
	return subject
}
