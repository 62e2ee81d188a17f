// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/ctxutil"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

// CredentialVerifier defines the interface needed to verify session
// credentials in middleware.
//
// # Why an interface?
//
// Defining CredentialVerifier here decouples the session gate from the `sec`
// implementation, allowing us to easily inject mocks during unit testing.
type CredentialVerifier interface {
	Verify(tokenStr string) (*sec.SessionClaims, error)
}

// IdentityResolver resolves a credential subject to a live user identity.
//
// The resolver must exclude deactivated users: a credential whose subject has
// been soft-deleted since issuance no longer authorizes anything.
type IdentityResolver interface {
	ResolveSubject(ctx context.Context, subjectID string) (*sec.Identity, error)
}

// SessionGate extracts, verifies and resolves the session credential on every
// request.
//
// # Flow
//  1. Read the credential from the session cookie, falling back to the
//     'Authorization: Bearer <token>' header.
//  2. If absent, the request proceeds as anonymous ([RequireAuth] rejects it
//     later on protected routes).
//  3. Verify signature and expiry via [CredentialVerifier].
//  4. Resolve the subject via [IdentityResolver]; reject if the user was
//     deleted or deactivated since issuance.
//  5. Reject if the password changed after the credential was issued.
//  6. Inject the resolved [*sec.Identity] into the request context.
func SessionGate(verifier CredentialVerifier, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Credential Extraction ──────────────────────────────────────
			credential := extractCredential(request)
			if credential == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Credential Verification ────────────────────────────────────
			claims, err := verifier.Verify(credential)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired session"))
				return
			}

			// ── 3. Subject Resolution ─────────────────────────────────────────
			identity, err := resolver.ResolveSubject(request.Context(), claims.Subject)
			if err != nil {
				respond.Error(writer, request,
					apperr.Unauthorized("The user belonging to this session no longer exists"))
				return
			}

			// ── 4. Staleness Check ────────────────────────────────────────────
			// A credential minted before the last password change is dead:
			// changing the password is the only way to lock out a stolen cookie.
			if claims.IssuedAt != nil && !identity.PasswordChangedAt.IsZero() &&
				identity.PasswordChangedAt.After(claims.IssuedAt.Time) {
				respond.Error(writer, request,
					apperr.Unauthorized("Password was changed recently. Please log in again"))
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [SessionGate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("You are not logged in. Please log in to get access"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// extractCredential pulls the raw session credential out of the request.
// The logout sentinel is treated as absence, not as an invalid credential.
func extractCredential(request *http.Request) string {
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil {
		if cookie.Value != "" && cookie.Value != constants.LogoutSentinel {
			return cookie.Value
		}
	}

	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
