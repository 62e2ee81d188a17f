// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/platform/sec"
)

/*
TestHashPassword_RoundTrip verifies that a hashed password always verifies
against its own plaintext and never against a different one.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	digest, err := sec.HashPassword("password123")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	// The digest must never equal (or contain) the plaintext.
	assert.NotContains(t, digest, "password123")

	assert.True(t, sec.CheckPasswordHash("password123", digest))
	assert.False(t, sec.CheckPasswordHash("password124", digest))
	assert.False(t, sec.CheckPasswordHash("", digest))
}

/*
TestHashPassword_Salted verifies two hashes of the same input differ
(bcrypt embeds a random salt).
*/
func TestHashPassword_Salted(t *testing.T) {
	first, err := sec.HashPassword("password123")
	require.NoError(t, err)

	second, err := sec.HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
