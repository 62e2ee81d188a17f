// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTokenService(t *testing.T, ttl time.Duration) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSecret, "aegis.test", ttl)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_IssueVerify checks the happy path: an issued credential
verifies and carries the subject, issued-at, and expiry.
*/
func TestTokenService_IssueVerify(t *testing.T) {
	service := newTokenService(t, time.Hour)

	token, expiresAt, err := service.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 5*time.Second)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
}

/*
TestTokenService_RejectsTampering verifies that any modification of the
credential invalidates it.
*/
func TestTokenService_RejectsTampering(t *testing.T) {
	service := newTokenService(t, time.Hour)

	token, _, err := service.Issue("user-123")
	require.NoError(t, err)

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = service.Verify(tampered)
	assert.Error(t, err)
}

/*
TestTokenService_RejectsWrongKey verifies a credential signed with another
secret never validates.
*/
func TestTokenService_RejectsWrongKey(t *testing.T) {
	service := newTokenService(t, time.Hour)

	other, err := sec.NewTokenService("ffffffffffffffffffffffffffffffff", "aegis.test", time.Hour)
	require.NoError(t, err)

	token, _, err := other.Issue("user-123")
	require.NoError(t, err)

	_, err = service.Verify(token)
	assert.Error(t, err)
}

/*
TestTokenService_RejectsExpired verifies an elapsed expiry fails validation.
*/
func TestTokenService_RejectsExpired(t *testing.T) {
	service := newTokenService(t, -time.Minute)

	token, _, err := service.Issue("user-123")
	require.NoError(t, err)

	_, err = service.Verify(token)
	assert.Error(t, err)
}

/*
TestNewTokenService_RejectsShortSecret ensures weak secrets are refused at
startup rather than silently accepted.
*/
func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	_, err := sec.NewTokenService("tooshort", "aegis.test", time.Hour)
	assert.Error(t, err)
}
