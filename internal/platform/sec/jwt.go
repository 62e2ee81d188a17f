// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Credential Signing,
// Action Tokens) from the domain logic. It acts as an Infrastructure service
// injected into the Application layer via small interfaces.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload embedded inside a session credential.
//
// # Why only registered claims?
//
// The credential is a stateless assertion of identity: subject, issued-at and
// expiry are all a request needs. Anything else (email, verified flag) can
// change after issuance, so the session gate re-resolves the subject against
// the user store instead of trusting a snapshot.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// Identity is the resolved user attached to a request context after the
// session gate has validated the credential AND confirmed the subject still
// exists.
type Identity struct {
	ID    string
	Email string

	// PasswordChangedAt invalidates credentials issued before a password
	// change. Zero value means the password was never changed.
	PasswordChangedAt time.Time
}

// TokenService mints and verifies signed session credentials using HS256.
//
// Issuance is a pure function of the secret key and inputs — nothing is
// stored server-side, which is what makes logout purely client-driven.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("sec: session secret must be at least 32 bytes")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// TTL returns the configured credential validity window.
func (service *TokenService) TTL() time.Duration {
	return service.ttl
}

// Issue creates a signed session credential for the given subject.
func (service *TokenService) Issue(subjectID string) (string, time.Time, error) {
	currentTime := time.Now()
	expiresAt := currentTime.Add(service.ttl)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sec: failed to sign credential: %w", err)
	}

	return signedToken, expiresAt, nil
}

// Verify checks the signature and validity of a session credential.
// Tampering, a wrong signature, or an elapsed expiry all fail.
func (service *TokenService) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithIssuer(service.issuer))

	if err != nil {
		return nil, fmt.Errorf("sec: invalid credential: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid credential claims")
	}

	return claims, nil
}
