// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// ActionTokenTTL is the duration an email action token (verification or
	// password reset) remains valid. Short-lived (10 minutes) because the
	// plaintext travels over email.
	ActionTokenTTL = 10 * time.Minute

	// PasswordChangedBackdate is subtracted from the recorded password-change
	// instant so a session issued in the same second as the change still
	// validates as fresh.
	PasswordChangedBackdate = 1 * time.Second

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// LoginAttemptLimit is the number of failed logins tolerated per email
	// before the throttle rejects further attempts.
	LoginAttemptLimit = 10

	// LoginAttemptWindow is the sliding lockout window for failed logins.
	LoginAttemptWindow = 15 * time.Minute

	// DefaultAvatarURL is assigned to accounts that have not uploaded an avatar.
	DefaultAvatarURL = "/assets/avatars/default.jpg"
)
