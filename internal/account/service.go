// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/aegis/internal/auth"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/media"
)

// # Service Layer

// Service orchestrates self-service account operations.
type Service struct {
	accountRepository AccountRepository
	storage           media.Storage
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accountRepo AccountRepository, storage media.Storage, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		storage:           storage,
		logger:            logger,
	}
}

// # Profile Management

// UpdateProfileInput defines the mutable subset of a member's own profile.
// Nil pointer fields are left untouched.
type UpdateProfileInput struct {
	DisplayName *string
	Email       *string

	// Avatar holds the raw uploaded image, or nil when no new avatar was sent.
	Avatar []byte
}

/*
UpdateProfile applies a partial set of changes to the member's own record.

Description: Fetches the existing user state, overrides provided fields, runs
any uploaded avatar through the normalization pipeline, and synchronizes the
change to persistent storage. Password fields are out of scope here; the
handler rejects them before this method runs.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: apperr.BadRequest for undecodable avatar uploads, apperr.Conflict on
    duplicate email, or update failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}

	// Apply delta updates
	if input.Email != nil {
		user.Email = *input.Email
	}

	// Normalize and store the new avatar before touching the record, so a
	// failed upload leaves the profile unchanged.
	if input.Avatar != nil {
		processed, err := media.ProcessAvatar(input.Avatar)
		if err != nil {
			// The payload came from the member; a decode failure is their
			// input, not our infrastructure.
			return nil, apperr.BadRequest("Not an image! Please upload only images")
		}

		url, err := service.storage.Put(context, avatarKey(userID, time.Now()), media.AvatarContentType, processed)
		if err != nil {
			return nil, fmt.Errorf("account_service_avatar_upload_failed: %w", err)
		}
		user.AvatarURL = url
	}

	// Persist changes
	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
Deactivate performs an idempotent soft-deletion of the member's own account.

Description: Flags the account inactive. The row survives for retention, but
every lookup from now on behaves as if it never existed, which also kills all
outstanding sessions at the gate.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) Deactivate(context context.Context, userID string) error {
	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.Warn("user_account_deactivated", slog.String("user_id", userID))

	return nil
}
