// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

// # Test Doubles

// memoryUserRepository is an in-memory UserRepository good enough for
// exercising service flows.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*User // keyed by ID
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperr.Conflict("Email is already registered")
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || !user.IsActive {
		return nil, apperr.NotFound("User not found")
	}
	clone := *user
	return &clone, nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) && user.IsActive {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User not found with this email")
}

func (r *memoryUserRepository) FindByVerificationHash(_ context.Context, tokenHash string, now time.Time) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.IsActive && user.VerificationTokenHash == tokenHash && user.VerificationTokenExpiresAt.After(now) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Verification token is invalid or expired")
}

func (r *memoryUserRepository) FindByResetHash(_ context.Context, tokenHash string, now time.Time) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.IsActive && user.ResetTokenHash == tokenHash && user.ResetTokenExpiresAt.After(now) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Reset token is invalid or expired")
}

func (r *memoryUserRepository) MarkVerified(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.IsVerified = true
		user.VerificationTokenHash = ""
		user.VerificationTokenExpiresAt = time.Time{}
	}
	return nil
}

func (r *memoryUserRepository) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.ResetTokenHash = tokenHash
		user.ResetTokenExpiresAt = expiresAt
	}
	return nil
}

func (r *memoryUserRepository) ClearResetToken(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.ResetTokenHash = ""
		user.ResetTokenExpiresAt = time.Time{}
	}
	return nil
}

func (r *memoryUserRepository) UpdatePassword(_ context.Context, userID, newHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.PasswordHash = newHash
		user.PasswordChangedAt = changedAt
		// Same contract as the SQL statement: the reset token burns with the
		// password change.
		user.ResetTokenHash = ""
		user.ResetTokenExpiresAt = time.Time{}
	}
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.users[user.ID]; ok {
		stored.Email = user.Email
		stored.DisplayName = user.DisplayName
		stored.AvatarURL = user.AvatarURL
	}
	return nil
}

func (r *memoryUserRepository) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.IsActive = false
	}
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// stored returns the raw persisted record, bypassing the active filter.
func (r *memoryUserRepository) stored(id string) *User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

// memoryThrottle counts hits per email in memory.
type memoryThrottle struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemoryThrottle() *memoryThrottle {
	return &memoryThrottle{counts: make(map[string]int64)}
}

func (t *memoryThrottle) Hit(_ context.Context, email string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[email]++
	return t.counts[email], nil
}

func (t *memoryThrottle) Reset(_ context.Context, email string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, email)
	return nil
}

// recordingMailer captures outgoing mail instead of sending it.
type recordingMailer struct {
	mu       sync.Mutex
	failWith error
	welcomes []string // verify URLs
	resets   []string // reset URLs
}

func (m *recordingMailer) SendWelcome(_ context.Context, _ string, _ string, verifyURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.welcomes = append(m.welcomes, verifyURL)
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, _ string, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.resets = append(m.resets, resetURL)
	return nil
}

// lastLink extracts the token from the last captured URL of the given list.
func lastToken(t *testing.T, urls []string) string {
	t.Helper()
	require.NotEmpty(t, urls)
	parts := strings.Split(urls[len(urls)-1], "/")
	return parts[len(parts)-1]
}

// # Fixture

type serviceFixture struct {
	service    *Service
	users      *memoryUserRepository
	throttle   *memoryThrottle
	mail       *recordingMailer
	credential *sec.TokenService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	credentials, err := sec.NewTokenService(
		"0123456789abcdef0123456789abcdef",
		"aegis.test",
		time.Hour,
	)
	require.NoError(t, err)

	users := newMemoryUserRepository()
	throttle := newMemoryThrottle()
	mail := &recordingMailer{}

	logger := slog.New(slog.DiscardHandler)
	service := NewService(users, throttle, credentials, mail, logger)

	return &serviceFixture{
		service:    service,
		users:      users,
		throttle:   throttle,
		mail:       mail,
		credential: credentials,
	}
}

const testLinkBase = "https://aegis.test/api/v1/auth"

func (f *serviceFixture) signup(t *testing.T, email, password string) *User {
	t.Helper()
	user, err := f.service.Signup(context.Background(), SignupInput{
		Email:       email,
		Password:    password,
		LinkBaseURL: testLinkBase,
	})
	require.NoError(t, err)
	return user
}

// signupVerified enrolls an account and walks the emailed verification link,
// leaving it ready to log in.
func (f *serviceFixture) signupVerified(t *testing.T, email, password string) *User {
	t.Helper()
	f.signup(t, email, password)
	verified, err := f.service.VerifyEmail(context.Background(), lastToken(t, f.mail.welcomes))
	require.NoError(t, err)
	return verified
}

// # Registration

func TestSignup_CreatesHashedUnverifiedAccount(t *testing.T) {
	fixture := newServiceFixture(t)

	user := fixture.signup(t, "new@example.com", "correct horse battery")

	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsVerified)
	assert.True(t, user.IsActive)
	assert.Equal(t, DefaultAvatarURL, user.AvatarURL)

	// Password is stored only as a bcrypt hash.
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("correct horse battery", user.PasswordHash))

	// Skipped display name gets a generated three-word one.
	assert.Len(t, strings.Fields(user.DisplayName), 3)

	// The mailed link carries the plaintext token, storage only the digest.
	token := lastToken(t, fixture.mail.welcomes)
	stored := fixture.users.stored(user.ID)
	assert.NotEqual(t, token, stored.VerificationTokenHash)
	assert.Equal(t, sec.HashActionToken(token), stored.VerificationTokenHash)
}

func TestSignup_KeepsProvidedDisplayName(t *testing.T) {
	fixture := newServiceFixture(t)

	user, err := fixture.service.Signup(context.Background(), SignupInput{
		Email:       "named@example.com",
		Password:    "long enough pass",
		DisplayName: "Ada",
		LinkBaseURL: testLinkBase,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.DisplayName)
}

func TestSignup_DuplicateEmailConflicts(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signup(t, "dup@example.com", "long enough pass")

	_, err := fixture.service.Signup(context.Background(), SignupInput{
		Email:       "dup@example.com",
		Password:    "another password",
		LinkBaseURL: testLinkBase,
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestSignup_RollsBackWhenEmailDeliveryFails(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.mail.failWith = errors.New("smtp: connection refused")

	_, err := fixture.service.Signup(context.Background(), SignupInput{
		Email:       "bounce@example.com",
		Password:    "long enough pass",
		LinkBaseURL: testLinkBase,
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "DELIVERY_FAILED", appErr.Code)

	// The half-created account is gone; signup can be retried.
	fixture.mail.failWith = nil
	fixture.signup(t, "bounce@example.com", "long enough pass")
}

// # Login

func TestLogin_HappyPath(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupVerified(t, "user@example.com", "long enough pass")

	session, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "long enough pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Credential)

	claims, err := fixture.credential.Verify(session.Credential)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)
}

func TestLogin_RejectsUnverifiedAccount(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signup(t, "user@example.com", "long enough pass")

	// Correct credentials are not enough before the email link was walked.
	_, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "long enough pass",
	})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 401, appErr.HTTPStatus)

	fixture.signupVerified(t, "other@example.com", "long enough pass")
	_, err = fixture.service.Login(context.Background(), LoginInput{
		Email:    "other@example.com",
		Password: "long enough pass",
	})
	require.NoError(t, err)
}

func TestLogin_GenericRejection(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupVerified(t, "user@example.com", "long enough pass")

	// Wrong password and unknown email fail with the same message so callers
	// cannot probe which addresses exist.
	_, wrongPassword := fixture.service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "not the password",
	})
	_, unknownEmail := fixture.service.Login(context.Background(), LoginInput{
		Email:    "ghost@example.com",
		Password: "whatever at all",
	})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, 401, apperr.As(wrongPassword).HTTPStatus)
}

func TestLogin_ThrottlesAfterRepeatedFailures(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupVerified(t, "user@example.com", "long enough pass")

	for i := 0; i < LoginAttemptLimit; i++ {
		_, err := fixture.service.Login(context.Background(), LoginInput{
			Email:    "user@example.com",
			Password: "not the password",
		})
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	}

	// Even the correct password is rejected once the limit is exceeded.
	_, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "long enough pass",
	})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 429, appErr.HTTPStatus)
}

func TestLogin_SuccessForgivesEarlierFailures(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupVerified(t, "user@example.com", "long enough pass")

	for i := 0; i < LoginAttemptLimit-1; i++ {
		_, _ = fixture.service.Login(context.Background(), LoginInput{
			Email:    "user@example.com",
			Password: "not the password",
		})
	}

	_, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "long enough pass",
	})
	require.NoError(t, err)

	// Counter restarted: another bad attempt is just failure number one.
	_, err = fixture.service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "not the password",
	})
	assert.Equal(t, 401, apperr.As(err).HTTPStatus)
}

// # Email Verification

func TestVerifyEmail_MarksVerifiedAndBurnsToken(t *testing.T) {
	fixture := newServiceFixture(t)
	created := fixture.signup(t, "user@example.com", "long enough pass")
	token := lastToken(t, fixture.mail.welcomes)

	user, err := fixture.service.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Equal(t, created.ID, user.ID)

	// Single-use: the same link cannot verify twice.
	_, err = fixture.service.VerifyEmail(context.Background(), token)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 400, appErr.HTTPStatus)
}

func TestVerifyEmail_RejectsExpiredToken(t *testing.T) {
	fixture := newServiceFixture(t)
	created := fixture.signup(t, "user@example.com", "long enough pass")
	token := lastToken(t, fixture.mail.welcomes)

	// Age the stored token past its window.
	stored := fixture.users.stored(created.ID)
	stored.VerificationTokenExpiresAt = time.Now().Add(-time.Minute)

	_, err := fixture.service.VerifyEmail(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, 400, apperr.As(err).HTTPStatus)
}

// # Password Recovery

func TestForgotPassword_UnknownEmailIsNotFound(t *testing.T) {
	fixture := newServiceFixture(t)

	err := fixture.service.ForgotPassword(context.Background(), "ghost@example.com", testLinkBase)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.HTTPStatus)
}

func TestForgotPassword_StoresDigestNotPlaintext(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.signup(t, "user@example.com", "long enough pass")

	require.NoError(t, fixture.service.ForgotPassword(context.Background(), "user@example.com", testLinkBase))

	token := lastToken(t, fixture.mail.resets)
	stored := fixture.users.stored(user.ID)
	assert.NotEqual(t, token, stored.ResetTokenHash)
	assert.Equal(t, sec.HashActionToken(token), stored.ResetTokenHash)
	assert.WithinDuration(t, time.Now().Add(ActionTokenTTL), stored.ResetTokenExpiresAt, 5*time.Second)
}

func TestForgotPassword_ClearsTokenWhenDeliveryFails(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.signup(t, "user@example.com", "long enough pass")
	fixture.mail.failWith = errors.New("smtp: relay timeout")

	err := fixture.service.ForgotPassword(context.Background(), "user@example.com", testLinkBase)
	require.Error(t, err)
	assert.Equal(t, "DELIVERY_FAILED", apperr.As(err).Code)

	stored := fixture.users.stored(user.ID)
	assert.Empty(t, stored.ResetTokenHash)
}

func TestResetPassword_InstallsNewPasswordOnce(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupVerified(t, "user@example.com", "long enough pass")
	require.NoError(t, fixture.service.ForgotPassword(context.Background(), "user@example.com", testLinkBase))
	token := lastToken(t, fixture.mail.resets)

	session, err := fixture.service.ResetPassword(context.Background(), token, "brand new secret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Credential)

	// Old password rejected, new one accepted.
	_, err = fixture.service.Login(context.Background(), LoginInput{
		Email: "user@example.com", Password: "long enough pass",
	})
	require.Error(t, err)
	_, err = fixture.service.Login(context.Background(), LoginInput{
		Email: "user@example.com", Password: "brand new secret",
	})
	require.NoError(t, err)

	// The change instant is backdated so the fresh credential stays valid.
	stored := fixture.users.stored(session.User.ID)
	assert.True(t, stored.PasswordChangedAt.Before(time.Now()))

	// Single-use: the same token cannot reset twice.
	_, err = fixture.service.ResetPassword(context.Background(), token, "yet another one")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.As(err).HTTPStatus)
}

// failingClearRepository simulates a store where the standalone token
// cleanup is unavailable, to pin down that the reset flow never depends on it.
type failingClearRepository struct {
	*memoryUserRepository
}

func (r *failingClearRepository) ClearResetToken(context.Context, string) error {
	return errors.New("pgx: connection reset by peer")
}

func TestResetPassword_TokenBurnsAtomicallyWithPasswordChange(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupVerified(t, "user@example.com", "long enough pass")
	require.NoError(t, fixture.service.ForgotPassword(context.Background(), "user@example.com", testLinkBase))
	token := lastToken(t, fixture.mail.resets)

	// Swap in a store whose standalone cleanup always fails. The reset must
	// still both install the password and burn the token, because the two
	// happen in one repository operation.
	fixture.service.userRepository = &failingClearRepository{fixture.users}

	session, err := fixture.service.ResetPassword(context.Background(), token, "brand new secret")
	require.NoError(t, err)

	stored := fixture.users.stored(session.User.ID)
	assert.Empty(t, stored.ResetTokenHash)

	// The emailed link cannot install a second password.
	_, err = fixture.service.ResetPassword(context.Background(), token, "attacker chosen pw")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.As(err).HTTPStatus)
}

func TestResetPassword_RejectsUnknownToken(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.service.ResetPassword(context.Background(), "deadbeef", "brand new secret")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.As(err).HTTPStatus)
}

// # Password Change

func TestChangePassword_RequiresCurrentPassword(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.signupVerified(t, "user@example.com", "long enough pass")

	_, err := fixture.service.ChangePassword(
		context.Background(), user.ID, "not the password", "brand new secret",
	)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 401, appErr.HTTPStatus)
}

func TestChangePassword_StalenessCutover(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.signupVerified(t, "user@example.com", "long enough pass")

	fresh, err := fixture.service.ChangePassword(
		context.Background(), user.ID, "long enough pass", "brand new secret",
	)
	require.NoError(t, err)

	// The fresh credential's issue time sits after the backdated change, so
	// only it survives the session gate's staleness check.
	claims, err := fixture.credential.Verify(fresh.Credential)
	require.NoError(t, err)
	identity, err := fixture.service.ResolveSubject(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, identity.PasswordChangedAt.After(claims.IssuedAt.Time))
}

// # Session Resolution

func TestResolveSubject_MapsIdentity(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.signup(t, "user@example.com", "long enough pass")

	identity, err := fixture.service.ResolveSubject(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, "user@example.com", identity.Email)
}

func TestResolveSubject_SoftDeletedAccountVanishes(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.signup(t, "user@example.com", "long enough pass")

	require.NoError(t, fixture.users.SoftDelete(context.Background(), user.ID))

	_, err := fixture.service.ResolveSubject(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)
}
