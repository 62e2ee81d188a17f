// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entity (User) and the logic for authentication,
email verification, password recovery, and account lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered Aegis account.
//
// Action-token fields hold SHA-256 digests of single-use tokens; the plaintext
// only ever travels inside the email link. A zero expiry means no token is
// outstanding.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	IsVerified   bool   `json:"is_verified"`

	// IsActive is false once the account has been soft-deleted. Inactive
	// accounts are invisible to every repository lookup.
	IsActive bool `json:"-"`

	VerificationTokenHash      string    `json:"-"`
	VerificationTokenExpiresAt time.Time `json:"-"`
	ResetTokenHash             string    `json:"-"`
	ResetTokenExpiresAt        time.Time `json:"-"`

	// PasswordChangedAt invalidates sessions issued before a password
	// change. Zero means the password has never changed since signup.
	PasswordChangedAt time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	FieldDisplayName     = "display_name"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldUser            = "user"
	FieldMessage         = "message"
)
