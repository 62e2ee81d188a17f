// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account implements self-service profile management.

It covers the operations a logged-in member performs on their own record:
profile updates (display name, email, avatar) and account closure. Identity
and credential flows stay in the auth package.

# Architecture

The package reuses the auth domain's [auth.User] entity and persists through
the same repository; only the contract it needs is declared here.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/aegis/internal/auth"
)

// # Data Access Contract

// AccountRepository is the slice of the user store this package needs.
// Satisfied by [auth.PostgresUserRepository].
type AccountRepository interface {

	/*
		FindByID returns the active account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *auth.User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		Update persists changes to mutable profile fields.

		Parameters:
		  - context: context.Context
		  - user: *auth.User

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		SoftDelete marks the account inactive without removing the row.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, id string) error
}

// # Field Identifiers

const (
	FieldDisplayName = "display_name"
	FieldEmail       = "email"
	FieldAvatar      = "avatar"
)

// avatarKey builds the object-storage key for a member's avatar. The upload
// instant is part of the key so CDN caches never serve a stale image.
func avatarKey(userID string, now time.Time) string {
	return "avatars/user-" + userID + "-" + now.UTC().Format("20060102150405") + ".jpg"
}
