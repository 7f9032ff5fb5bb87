// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package auth provides bearer-token authentication for the ingest API.
package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RS256Authenticator implements the Authenticator interface for tokens
// signed with a static RSA private key, as issued by the identity
// service fronting the ingest API. Unlike internal OIDC providers it
// does not perform JWKS discovery: the verification key is a single
// PEM file supplied out of band by the identity service's operator.
type RS256Authenticator struct {
	publicKey *rsa.PublicKey
	audience  string
}

// NewRS256Authenticator loads the PEM-encoded RSA public key at
// publicKeyPath and returns an authenticator that verifies bearer
// tokens against it, requiring audience in the token's aud claim.
func NewRS256Authenticator(publicKeyPath, audience string) (*RS256Authenticator, error) {
	if audience == "" {
		return nil, errors.New("rs256 authenticator: audience is required")
	}

	pemBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("rs256 authenticator: read public key: %w", err)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("rs256 authenticator: parse public key: %w", err)
	}

	return &RS256Authenticator{publicKey: key, audience: audience}, nil
}

// Authenticate extracts the bearer token from the Authorization header
// and verifies its RS256 signature, sub, aud, and exp claims.
func (a *RS256Authenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	tokenStr := a.extractToken(r)
	if tokenStr == "" {
		return nil, ErrNoCredentials
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	if err := a.validateAudience(claims); err != nil {
		return nil, ErrInvalidCredentials
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidCredentials
	}

	return a.buildAuthSubject(claims), nil
}

// Name returns the authenticator name.
func (a *RS256Authenticator) Name() string {
	return string(AuthModeRS256)
}

// extractToken extracts the bearer token from the Authorization header.
func (a *RS256Authenticator) extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// validateAudience checks that a.audience appears in the token's aud
// claim, which per RFC 7519 may be a single string or an array.
func (a *RS256Authenticator) validateAudience(claims jwt.MapClaims) error {
	audClaim := claims["aud"]
	if audClaim == nil {
		return errors.New("token missing aud claim")
	}

	switch aud := audClaim.(type) {
	case string:
		if aud != a.audience {
			return fmt.Errorf("invalid audience: got %s, want %s", aud, a.audience)
		}
	case []interface{}:
		for _, v := range aud {
			if s, ok := v.(string); ok && s == a.audience {
				return nil
			}
		}
		return fmt.Errorf("audience %s not present in token", a.audience)
	default:
		return fmt.Errorf("unexpected audience claim type: %T", audClaim)
	}
	return nil
}

// buildAuthSubject extracts sub/iss/iat/exp into an AuthSubject.
func (a *RS256Authenticator) buildAuthSubject(claims jwt.MapClaims) *AuthSubject {
	subject := &AuthSubject{
		AuthMethod: AuthModeRS256,
		Audience:   a.audience,
		RawClaims:  claims,
	}

	if sub, ok := claims["sub"].(string); ok {
		subject.ID = sub
	}
	if iss, ok := claims["iss"].(string); ok {
		subject.Issuer = iss
	}
	if iat, ok := claims["iat"].(float64); ok {
		subject.IssuedAt = int64(iat)
	}
	if exp, ok := claims["exp"].(float64); ok {
		subject.ExpiresAt = int64(exp)
	}

	return subject
}
