// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access
//
// Every lookup excludes soft-deleted accounts; an inactive account behaves
// exactly like a missing one.

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the active account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the active account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByVerificationHash returns the account holding an unexpired
		verification token with the given digest.

		Parameters:
		  - context: context.Context
		  - tokenHash: string (SHA-256 hex digest)
		  - now: time.Time (expiry reference instant)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound if absent or expired
	*/
	FindByVerificationHash(context context.Context, tokenHash string, now time.Time) (*User, error)

	/*
		FindByResetHash returns the account holding an unexpired password
		reset token with the given digest.

		Parameters:
		  - context: context.Context
		  - tokenHash: string (SHA-256 hex digest)
		  - now: time.Time (expiry reference instant)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound if absent or expired
	*/
	FindByResetHash(context context.Context, tokenHash string, now time.Time) (*User, error)

	/*
		MarkVerified flips the account to isverified = true and burns the
		verification token so it can never be replayed.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, userID string) error

	/*
		SetResetToken stores a fresh reset-token digest and expiry, replacing
		any outstanding one.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - tokenHash: string
		  - expiresAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	SetResetToken(context context.Context, userID string, tokenHash string, expiresAt time.Time) error

	/*
		ClearResetToken discards the outstanding reset token, if any.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	ClearResetToken(context context.Context, userID string) error

	/*
		UpdatePassword replaces the password hash, records the change
		instant used for session staleness checks, and clears any
		outstanding reset token in the same operation so the token burn
		cannot be lost to a partial failure.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string
		  - changedAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID string, newHash string, changedAt time.Time) error

	/*
		Update persists changes to mutable profile fields (email, display
		name, avatar).

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		SoftDelete marks the account inactive without removing the row.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		Delete physically removes the account row. Used only to roll back a
		signup whose welcome email could not be delivered.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, id string) error
}

// # Volatile Data Access

// ThrottleRepository tracks failed login attempts per email address.
type ThrottleRepository interface {

	/*
		Hit records a failed attempt and returns the running count inside the
		current window.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - int64: Attempt count including this hit
		  - error: Storage failures
	*/
	Hit(context context.Context, email string) (int64, error)

	/*
		Reset clears the attempt counter after a successful login.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - error: Storage failures
	*/
	Reset(context context.Context, email string) error
}
