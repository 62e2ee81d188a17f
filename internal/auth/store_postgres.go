// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// PostgreSQL implementation of the auth storage contracts.
//
// # Architecture
//
// Repositories here are strictly separated from domain logic. They implement
// domain-defined interfaces (e.g., [UserRepository]) using the [pgxpool.Pool]
// connection manager.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, unique violations) are mapped to
// domain-friendly [apperr.AppError] types to avoid leaking storage
// implementation details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aegis/internal/platform/apperr"
)

// # User Repository

// userColumns is the canonical select list shared by every account lookup.
const userColumns = `
	id, email, passwordhash, displayname, avatarurl, isverified, isactive,
	verificationtokenhash, verificationtokenexpiresat,
	resettokenhash, resettokenexpiresat,
	passwordchangedat, createdat, updatedat`

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// rowScanner abstracts pgx.Row for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser hydrates a User from a row selected with userColumns.
func scanUser(row rowScanner) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&user.IsVerified,
		&user.IsActive,
		&user.VerificationTokenHash,
		&user.VerificationTokenExpiresAt,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint breach.
func isUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided. The email uniqueness constraint surfaces as apperr.Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict, constraint violations, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, email, passwordhash, displayname, avatarurl, isverified, isactive,
			verificationtokenhash, verificationtokenexpiresat, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.AvatarURL,
		user.IsVerified,
		user.IsActive,
		user.VerificationTokenHash,
		user.VerificationTokenExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves an active user record by their unique ID.

Description: Primary key resolution for user accounts. Soft-deleted accounts
are invisible.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1 AND isactive = TRUE`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves an active user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE LOWER(email) = LOWER($1) AND isactive = TRUE`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByVerificationHash retrieves the active account holding an unexpired
verification token with the given digest.

Description: Token resolution happens entirely on the digest; the plaintext
never reaches storage.

Parameters:
  - context: context.Context
  - tokenHash: string
  - now: time.Time

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound if absent or expired
*/
func (repository *PostgresUserRepository) FindByVerificationHash(context context.Context, tokenHash string, now time.Time) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE verificationtokenhash = $1
		  AND verificationtokenexpiresat > $2
		  AND isactive = TRUE`

	user, err := scanUser(repository.pool.QueryRow(context, query, tokenHash, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Verification token is invalid or expired")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_verification_hash_failed: %w", err)
	}

	return user, nil
}

/*
FindByResetHash retrieves the active account holding an unexpired password
reset token with the given digest.

Parameters:
  - context: context.Context
  - tokenHash: string
  - now: time.Time

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound if absent or expired
*/
func (repository *PostgresUserRepository) FindByResetHash(context context.Context, tokenHash string, now time.Time) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE resettokenhash = $1
		  AND resettokenexpiresat > $2
		  AND isactive = TRUE`

	user, err := scanUser(repository.pool.QueryRow(context, query, tokenHash, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Reset token is invalid or expired")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_reset_hash_failed: %w", err)
	}

	return user, nil
}

/*
MarkVerified updates the user's status to isverified = true and burns the
verification token.

Description: Post-verification cleanup to activate the account. The token
digest is cleared in the same statement so it is single-use.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET isverified = TRUE,
		    verificationtokenhash = '',
		    verificationtokenexpiresat = 'epoch',
		    updatedat = $2
		WHERE id = $1 AND isactive = TRUE`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

/*
SetResetToken stores a fresh reset-token digest, replacing any outstanding one.

Parameters:
  - context: context.Context
  - userID: string
  - tokenHash: string
  - expiresAt: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) SetResetToken(context context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users.account
		SET resettokenhash = $2, resettokenexpiresat = $3, updatedat = $4
		WHERE id = $1 AND isactive = TRUE`

	_, err := repository.pool.Exec(context, query, userID, tokenHash, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_reset_token_failed: %w", err)
	}
	return nil
}

/*
ClearResetToken discards the outstanding reset token, if any.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ClearResetToken(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET resettokenhash = '', resettokenexpiresat = 'epoch', updatedat = $2
		WHERE id = $1 AND isactive = TRUE`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_clear_reset_token_failed: %w", err)
	}
	return nil
}

/*
UpdatePassword replaces the password hash, records the change instant, and
burns any outstanding reset token.

Description: changedAt feeds the session staleness check; callers backdate it
slightly so credentials issued immediately after remain valid. The reset
fields are cleared in the same statement so a password change and the token
burn can never be split by a partial failure.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string
  - changedAt: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID string, newHash string, changedAt time.Time) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, passwordchangedat = $3,
		    resettokenhash = '', resettokenexpiresat = 'epoch', updatedat = $4
		WHERE id = $1 AND isactive = TRUE`

	_, err := repository.pool.Exec(context, query, userID, newHash, changedAt, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	return nil
}

/*
Update persists changes to a user's mutable profile fields.

Description: Synchronizes email, display name and avatar with the database,
refreshing the updatedat timestamp.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: apperr.Conflict on duplicate email, or update failures
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET email = $2, displayname = $3, avatarurl = $4, updatedat = $5
		WHERE id = $1 AND isactive = TRUE`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_user_repo_update_failed: %w", err)
	}

	return nil
}

/*
SoftDelete marks a user account as inactive using their ID.

Description: Retention-friendly deletion; the row survives but every lookup
excludes it from now on.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Side-effect failures
*/
func (repository *PostgresUserRepository) SoftDelete(context context.Context, id string) error {
	const query = "UPDATE users.account SET isactive = FALSE, updatedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_soft_delete_failed: %w", err)
	}
	return nil
}

/*
Delete physically removes an account row.

Description: Compensating action for a signup whose welcome email bounced;
never used on established accounts.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) Delete(context context.Context, id string) error {
	const query = "DELETE FROM users.account WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_delete_failed: %w", err)
	}
	return nil
}
