// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Service layer for the identity and access management flows.

It handles everything from account enrollment and secure password hashing to
email verification, password recovery, and stateless session issuance.

Architecture:

  - Service: Orchestrates business logic (Signup, Login, Recovery).
  - Repository: Abstracted interfaces for Postgres (Users) and Redis (Throttle).
  - Security: Bcrypt password hashing and HMAC-signed JWT session credentials.

Action tokens are generated here and stored only as SHA-256 digests; the
plaintext is handed to the mailer and then forgotten.
*/

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/mailer"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/pkg/namegen"
	"github.com/taibuivan/aegis/pkg/uuid"
)

// # Contracts & Types

// CredentialIssuer defines the contract for minting session credentials.
// Satisfied by [sec.TokenService].
type CredentialIssuer interface {
	// Issue creates a signed session credential for the given subject.
	//
	// # Returns
	//   - The signed credential, its expiry instant, or a signing error.
	Issue(subjectID string) (string, time.Time, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token, or
// login logic must be reviewed by the security team.
type Service struct {
	userRepository     UserRepository
	throttleRepository ThrottleRepository
	credentials        CredentialIssuer
	mail               mailer.Mailer
	logger             *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	throttleRepo ThrottleRepository,
	credentials CredentialIssuer,
	mail mailer.Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:     userRepo,
		throttleRepository: throttleRepo,
		credentials:        credentials,
		mail:               mail,
		logger:             logger,
	}
}

// Session represents a freshly issued stateless session.
type Session struct {
	Credential string
	ExpiresAt  time.Time
	User       *User
}

// issueSession mints a credential for the user.
func (service *Service) issueSession(user *User) (*Session, error) {
	credential, expiresAt, err := service.credentials.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_credential_issue_failed: %w", err)
	}

	return &Session{
		Credential: credential,
		ExpiresAt:  expiresAt,
		User:       user,
	}, nil
}

// # Registration Flow

// SignupInput holds the data required to enroll a new member.
type SignupInput struct {
	Email       string
	Password    string
	DisplayName string

	// LinkBaseURL is the absolute prefix email action links are built on,
	// e.g. "https://aegis.id/api/v1/auth". Derived from the inbound request.
	LinkBaseURL string
}

/*
Signup validates, hashes, and persists a brand new user account.

Description: Deep-enrollment of a new member. A verification token is minted
and mailed; if the welcome email cannot be delivered the freshly created row
is removed again so the address stays free for a retry. No session is issued:
the account has to be verified before it can log in.

Parameters:
  - context: context.Context
  - input: SignupInput

Returns:
  - *User: Created entity (password hash never serialized)
  - error: apperr.Conflict (if the email exists), apperr.DeliveryFailed, or storage errors
*/
func (service *Service) Signup(context context.Context, input SignupInput) (*User, error) {

	// Prevent storing plain-text passwords. Cost is fixed high because signup
	// is rare relative to login.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Mint the verification token. Only the digest is persisted.
	plaintextToken, tokenHash, err := sec.GenerateActionToken()
	if err != nil {
		return nil, fmt.Errorf("auth_service_verification_token_failed: %w", err)
	}

	// Members who skip the display name get a generated one.
	displayName := input.DisplayName
	if displayName == "" {
		displayName = namegen.Random()
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:                         uuid.New(),
		Email:                      input.Email,
		PasswordHash:               hashedPassword,
		DisplayName:                displayName,
		AvatarURL:                  DefaultAvatarURL,
		IsVerified:                 false,
		IsActive:                   true,
		VerificationTokenHash:      tokenHash,
		VerificationTokenExpiresAt: time.Now().Add(ActionTokenTTL),
	}

	// Persist the user to the database. Duplicate emails surface as Conflict.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	// Deliver the welcome email carrying the verification link. A bounced
	// delivery rolls the account back so signup can simply be retried.
	verifyURL := fmt.Sprintf("%s/verify/%s", input.LinkBaseURL, plaintextToken)
	if err := service.mail.SendWelcome(context, user.Email, user.DisplayName, verifyURL); err != nil {
		service.logger.Error("signup_welcome_email_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		_ = service.userRepository.Delete(context, user.ID)
		return nil, apperr.DeliveryFailed(err)
	}

	service.logger.Info("user_signed_up", slog.String("user_id", user.ID))

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates user credentials and issues a session.

Description: Verifies identity with a constant-time password comparison and
mints a fresh credential. Failed attempts feed a per-email throttle; once the
limit is exceeded further attempts are rejected until the window lapses.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Transport-ready session
  - error: Unauthorized, RateLimited, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {

	// Count the attempt up front so unknown emails burn the throttle too.
	attempts, err := service.throttleRepository.Hit(context, input.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_throttle_failed: %w", err)
	}
	if attempts > LoginAttemptLimit {
		return nil, apperr.RateLimited("Too many login attempts. Please try again later")
	}

	// Generic message on both branches to prevent account enumeration.
	user, err := service.userRepository.FindByEmail(context, input.Email)
	if err != nil {
		return nil, apperr.Unauthorized("Incorrect email or password")
	}

	// Constant-time comparison inside bcrypt prevents timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Incorrect email or password")
	}

	// Checked after the password so this message is only ever shown to the
	// account owner.
	if !user.IsVerified {
		return nil, apperr.Unauthorized("Please verify your email address before logging in")
	}

	// Successful login forgives earlier failures.
	_ = service.throttleRepository.Reset(context, input.Email)

	return service.issueSession(user)
}

// # Email Verification

/*
VerifyEmail confirms a user's email address using the mailed token.

Description: Resolves the token by digest, requires it to be unexpired, marks
the account verified and burns the token so it is single-use.

Parameters:
  - context: context.Context
  - plaintextToken: string (hex token from the email link)

Returns:
  - *User: The verified account
  - error: apperr.BadRequest for unknown or expired tokens
*/
func (service *Service) VerifyEmail(context context.Context, plaintextToken string) (*User, error) {
	tokenHash := sec.HashActionToken(plaintextToken)

	user, err := service.userRepository.FindByVerificationHash(context, tokenHash, time.Now())
	if err != nil {
		return nil, apperr.BadRequest("Token is invalid or has expired")
	}

	if err := service.userRepository.MarkVerified(context, user.ID); err != nil {
		return nil, fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	user.IsVerified = true
	user.VerificationTokenHash = ""

	service.logger.Info("user_email_verified", slog.String("user_id", user.ID))

	return user, nil
}

// # Password Recovery

/*
ForgotPassword initiates the forgot-password flow.

Description: Mints a reset token, stores its digest on the account and mails
the plaintext link. Unknown emails are reported as NotFound. If delivery
fails the stored digest is cleared again so no orphaned token lingers.

Parameters:
  - context: context.Context
  - email: string
  - linkBaseURL: string (absolute prefix for the reset link)

Returns:
  - error: apperr.NotFound, apperr.DeliveryFailed, or storage errors
*/
func (service *Service) ForgotPassword(context context.Context, email string, linkBaseURL string) error {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return apperr.NotFound("There is no user with that email address")
	}

	plaintextToken, tokenHash, err := sec.GenerateActionToken()
	if err != nil {
		return fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(ActionTokenTTL)
	if err := service.userRepository.SetResetToken(context, user.ID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	resetURL := fmt.Sprintf("%s/resetPassword/%s", linkBaseURL, plaintextToken)
	if err := service.mail.SendPasswordReset(context, user.Email, resetURL); err != nil {
		service.logger.Error("password_reset_email_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		// An undeliverable token is unusable; discard it.
		_ = service.userRepository.ClearResetToken(context, user.ID)
		return apperr.DeliveryFailed(err)
	}

	service.logger.Info("password_reset_requested", slog.String("user_id", user.ID))

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Resolves the token by digest, requires it to be unexpired,
installs the new password and burns the token. The change instant is
backdated slightly so the session issued right after stays fresh. The member
is logged in with the new password immediately.

Parameters:
  - context: context.Context
  - plaintextToken: string
  - newPassword: string

Returns:
  - *Session: Fresh session under the new password
  - error: apperr.BadRequest for unknown or expired tokens, or storage errors
*/
func (service *Service) ResetPassword(context context.Context, plaintextToken string, newPassword string) (*Session, error) {
	tokenHash := sec.HashActionToken(plaintextToken)

	user, err := service.userRepository.FindByResetHash(context, tokenHash, time.Now())
	if err != nil {
		return nil, apperr.BadRequest("Token is invalid or has expired")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	// Single-use: the repository burns the reset token in the same statement
	// that installs the new hash.
	changedAt := time.Now().Add(-PasswordChangedBackdate)
	if err := service.userRepository.UpdatePassword(context, user.ID, hashedPassword, changedAt); err != nil {
		return nil, fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	user.PasswordHash = hashedPassword
	user.PasswordChangedAt = changedAt
	user.ResetTokenHash = ""

	service.logger.Info("user_password_reset", slog.String("user_id", user.ID))

	return service.issueSession(user)
}

/*
ChangePassword allows an authenticated user to rotate their credentials.

Description: Verifies the current password before installing the new one.
Sessions issued before the change turn stale everywhere; the returned session
is the only fresh one.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - *Session: Fresh session under the new password
  - error: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) (*Session, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Verify the current password before allowing the change.
	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return nil, apperr.Unauthorized("Your current password is wrong")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	changedAt := time.Now().Add(-PasswordChangedBackdate)
	if err := service.userRepository.UpdatePassword(context, user.ID, hashedPassword, changedAt); err != nil {
		return nil, fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	user.PasswordHash = hashedPassword
	user.PasswordChangedAt = changedAt

	service.logger.Info("user_password_changed", slog.String("user_id", user.ID))

	return service.issueSession(user)
}

// # Session Resolution

/*
Profile retrieves the full private identity of the authenticated user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Hydrated account entity
  - error: Not found or execution failures
*/
func (service *Service) Profile(context context.Context, userID string) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

/*
ResolveSubject maps a verified credential subject to a live identity.

Description: Satisfies [middleware.IdentityResolver]. A soft-deleted account
resolves to an error, which the session gate turns into a 401.

Parameters:
  - context: context.Context
  - subjectID: string

Returns:
  - *sec.Identity: Minimal identity for request context
  - error: apperr.NotFound for missing or inactive accounts
*/
func (service *Service) ResolveSubject(context context.Context, subjectID string) (*sec.Identity, error) {
	user, err := service.userRepository.FindByID(context, subjectID)
	if err != nil {
		return nil, err
	}

	return &sec.Identity{
		ID:                user.ID,
		Email:             user.Email,
		PasswordChangedAt: user.PasswordChangedAt,
	}, nil
}
